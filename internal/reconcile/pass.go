package reconcile

// Pass names one idempotent engine run over an entity in one direction.
type Pass string

const (
	ClientsPull      Pass = "clients.pull"
	CreditsPull      Pass = "credits.pull"
	PaymentsPull     Pass = "payments.pull"
	ClientsPush      Pass = "clients.push"
	CreditsPush      Pass = "credits.push"
	PaymentsPush     Pass = "payments.push"
	InstallmentsPull Pass = "installments.pull"
	InstallmentsPush Pass = "installments.push"
	ActionsPull      Pass = "actions.pull"
	ActionsPush      Pass = "actions.push"
)

type Direction string

const (
	SourceToLocal Direction = "source_to_local"
	LocalToTarget Direction = "local_to_target"
	TargetToLocal Direction = "target_to_local"
	LocalToSource Direction = "local_to_source"
)

var directions = map[Pass]Direction{
	ClientsPull:      SourceToLocal,
	CreditsPull:      SourceToLocal,
	PaymentsPull:     SourceToLocal,
	ClientsPush:      LocalToTarget,
	CreditsPush:      LocalToTarget,
	PaymentsPush:     LocalToTarget,
	InstallmentsPull: TargetToLocal,
	InstallmentsPush: LocalToSource,
	ActionsPull:      TargetToLocal,
	ActionsPush:      LocalToSource,
}

// Passes lists every pass in dependency order.
func Passes() []Pass {
	return []Pass{
		ClientsPull, CreditsPull, PaymentsPull,
		ClientsPush, CreditsPush, PaymentsPush,
		InstallmentsPull, InstallmentsPush,
		ActionsPull, ActionsPush,
	}
}

func (p Pass) Valid() bool {
	_, ok := directions[p]
	return ok
}

func (p Pass) Direction() Direction {
	return directions[p]
}

// Inbound reports whether the pass writes to local storage.
func (p Pass) Inbound() bool {
	d := p.Direction()
	return d == SourceToLocal || d == TargetToLocal
}
