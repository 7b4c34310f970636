package streaming

import (
	"strings"

	"github.com/k1networth/orderflow/internal/protocol"
)

type Details struct {
	IDStreaming protocol.Text `json:"id_streaming" binding:"required"`
}

type Request struct {
	Data      string  `json:"data,omitempty"`
	ClienteID string  `json:"cliente_id" binding:"required"`
	Detalhes  Details `json:"detalhes_compra"`
}

func (r Request) cpf() string { return strings.TrimSpace(r.ClienteID) }

type Video struct {
	IDStreaming string `json:"id_streaming"`
	Nome        string `json:"nome"`
	Link        string `json:"link"`
}

type Client struct {
	CPF   string
	Nome  string
	Email string
}

// Delivery is the record returned to the gateway in the video field.
type Delivery struct {
	CPF    string  `json:"cpf"`
	Videos []Video `json:"videos"`
}
