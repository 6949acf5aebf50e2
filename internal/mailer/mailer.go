package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"storefront/internal/domain/model"

	"github.com/wneessen/go-mail"
)

// 注文確定メール
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order model.Order) error
}

// SMTP未設定のとき
type NopMailer struct{}

func (NopMailer) SendOrderConfirmation(ctx context.Context, order model.Order) error { return nil }

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	PublicBaseURL string
}

type SMTPMailer struct {
	client  sender
	from    string
	baseURL string
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: new client: %w", err)
	}
	return newSMTPMailer(client, cfg), nil
}

func newSMTPMailer(client sender, cfg SMTPConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		client:  client,
		from:    from,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, order model.Order) error {
	to := strings.TrimSpace(order.ShippingAddress.Email)
	if to == "" {
		return nil
	}

	body, err := renderOrderConfirmation(order, m.baseURL)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mailer: from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mailer: to: %w", err)
	}
	msg.Subject(fmt.Sprintf("Order Confirmation - %s", order.Code))
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

type confirmationLine struct {
	Name      string
	Weight    string
	Quantity  int64
	LineTotal string
}

type confirmationView struct {
	Code     string
	Name     string
	Lines    []confirmationLine
	Subtotal string
	Shipping string
	Tax      string
	Total    string
	Address  model.ShippingAddress
	Link     string
}

var confirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your order, {{.Name}}!</h2>
  <p>Order <strong>#{{.Code}}</strong> has been received.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><th align="left">Item</th><th>Weight</th><th>Qty</th><th align="right">Amount</th></tr>
    {{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Weight}}</td><td>{{.Quantity}}</td><td align="right">₹{{.LineTotal}}</td></tr>
    {{end}}
  </table>
  <p>Subtotal: ₹{{.Subtotal}}<br>Shipping: ₹{{.Shipping}}<br>Tax: ₹{{.Tax}}<br><strong>Total: ₹{{.Total}}</strong></p>
  <h3>Shipping address</h3>
  <p>{{.Address.Name}}<br>{{.Address.Address1}}{{if .Address.Address2}}<br>{{.Address.Address2}}{{end}}<br>
  {{.Address.City}}{{if .Address.State}}, {{.Address.State}}{{end}} {{.Address.Zip}}<br>{{.Address.Phone}}</p>
  <p><a href="{{.Link}}">View your order</a></p>
</body>
</html>
`))

func renderOrderConfirmation(order model.Order, baseURL string) (string, error) {
	view := confirmationView{
		Code:     order.Code,
		Name:     order.ShippingAddress.Name,
		Subtotal: model.FormatAmount(order.Pricing.Subtotal),
		Shipping: model.FormatAmount(order.Pricing.Shipping),
		Tax:      model.FormatAmount(order.Pricing.Tax),
		Total:    model.FormatAmount(order.Pricing.Total),
		Address:  order.ShippingAddress,
		Link:     baseURL + "/order-confirmation/" + order.Code,
	}
	for _, it := range order.Items {
		view.Lines = append(view.Lines, confirmationLine{
			Name:      it.ProductName,
			Weight:    it.Weight,
			Quantity:  it.Quantity,
			LineTotal: model.FormatAmount(it.LineTotal()),
		})
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("mailer: render: %w", err)
	}
	return buf.String(), nil
}
