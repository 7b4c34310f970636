package association

import (
	"strings"
	"time"

	"github.com/k1networth/orderflow/internal/protocol"
)

// Values of tipo_assinatura.
const (
	KindNew      = "nova_associacao"
	KindUpgrade  = "upgrade_associacao"
	KindActivate = "ativacao_associacao"
)

// Kinds lists every supported tipo_assinatura.
func Kinds() []string { return []string{KindNew, KindUpgrade, KindActivate} }

func IsKind(s string) bool {
	for _, k := range Kinds() {
		if s == k {
			return true
		}
	}
	return false
}

type Details struct {
	NomePlano string             `json:"nome_plano" binding:"required"`
	Ativo     *protocol.FlexBool `json:"ativo,omitempty"`
}

type Request struct {
	Data           string  `json:"data" binding:"required"`
	ClienteID      string  `json:"cliente_id" binding:"required"`
	VendedorID     string  `json:"vendedor_id"`
	TipoAssinatura string  `json:"tipo_assinatura" binding:"required"`
	Detalhes       Details `json:"detalhes_compra"`
}

func (r Request) cpf() string { return strings.TrimSpace(r.ClienteID) }

// Membership is an association row joined with the client's contact data.
type Membership struct {
	CPF   string
	Nome  string
	Email string
	Plano string
	Ativo bool
}

type NewMembership struct {
	ClienteID   string
	VendedorID  string
	DataGeracao time.Time
	Plano       string
	Ativo       bool
}

// service names the change in the confirmation email.
func service(kind string) string {
	switch kind {
	case KindUpgrade:
		return "Upgrade"
	case KindActivate:
		return "Ativação"
	default:
		return "Assinatura"
	}
}
