package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var budgetUpdateTmpl = template.Must(template.New("budget_update").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Confirm budget update</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #4F81BD;">Confirm your budget update</h2>
    <p>Hi {{.Name}},</p>
    <p>You asked to change your <strong>{{.Category}}</strong> budget for <strong>{{.Month}}</strong> to <strong>{{.ProposedAmount}}</strong>.</p>
    <p>
      <a href="{{.ConfirmURL}}" style="display: inline-block; padding: 10px 20px; background: #4F81BD; color: #fff; text-decoration: none; border-radius: 4px;">Confirm update</a>
      &nbsp;
      <a href="{{.RejectURL}}" style="display: inline-block; padding: 10px 20px; background: #C0504D; color: #fff; text-decoration: none; border-radius: 4px;">Reject update</a>
    </p>
    <p>This link expires in 30 minutes. If you did not request this change you can ignore this email.</p>
  </div>
</body>
</html>`))

var budgetAlertTmpl = template.Must(template.New("budget_alert").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Budget alert</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: {{if .Overspent}}#C0504D{{else}}#F79646{{end}};">{{if .Overspent}}Budget exceeded{{else}}Budget nearly used{{end}}</h2>
    <p>Hi {{.Name}},</p>
    {{if .Overspent}}
    <p>You have spent <strong>{{.Spent}}</strong> on <strong>{{.Category}}</strong> in {{.Month}}, which is over your budget of <strong>{{.Amount}}</strong>.</p>
    {{else}}
    <p>You have spent <strong>{{.Spent}}</strong> of your <strong>{{.Amount}}</strong> budget for <strong>{{.Category}}</strong> in {{.Month}}.</p>
    {{end}}
  </div>
</body>
</html>`))

// BudgetUpdateEmail is the confirmation request sent when a budget change is
// proposed.
type BudgetUpdateEmail struct {
	To             string
	Name           string
	Category       string
	Month          string
	ProposedAmount string
	ConfirmURL     string
	RejectURL      string
}

// Message renders the email.
func (e BudgetUpdateEmail) Message() (Message, error) {
	body, err := render(budgetUpdateTmpl, e)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    KindBudgetConfirmation,
		To:      e.To,
		Subject: fmt.Sprintf("Confirm your %s budget update for %s", e.Category, e.Month),
		Body:    body,
	}, nil
}

// BudgetAlertEmail warns that spending in a category reached or passed its
// budget.
type BudgetAlertEmail struct {
	To        string
	Name      string
	Category  string
	Month     string
	Spent     string
	Amount    string
	Overspent bool
}

// Message renders the email.
func (e BudgetAlertEmail) Message() (Message, error) {
	body, err := render(budgetAlertTmpl, e)
	if err != nil {
		return Message{}, err
	}

	kind := KindBudgetNearLimit
	subject := fmt.Sprintf("You are close to your %s budget for %s", e.Category, e.Month)
	if e.Overspent {
		kind = KindBudgetOverspent
		subject = fmt.Sprintf("You exceeded your %s budget for %s", e.Category, e.Month)
	}

	return Message{Kind: kind, To: e.To, Subject: subject, Body: body}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
