package protocol

import (
	"fmt"

	"github.com/k1networth/orderflow/internal/shared/errs"
)

// Domain names one request/response flow between the gateway and a worker.
type Domain string

const (
	Purchase    Domain = "purchase"
	Association Domain = "association"
	Streaming   Domain = "streaming"
	Commission  Domain = "commission"
	Shipment    Domain = "shipment"
)

const gatewayApp = "app1"

var workerApps = map[Domain]string{
	Association: "app2",
	Purchase:    "app3",
	Streaming:   "app4",
	Commission:  "app5",
	Shipment:    "app6",
}

// Result fields carried by successful responses, per domain.
const (
	FieldSaleID      = "venda_id"
	FieldVideo       = "video"
	FieldSellers     = "vendedores"
	FieldShipmentDoc = "remessa"
)

func Domains() []Domain {
	return []Domain{Purchase, Association, Streaming, Commission, Shipment}
}

func ParseDomain(s string) (Domain, error) {
	d := Domain(s)
	if _, ok := workerApps[d]; !ok {
		return "", errs.ValidationError(fmt.Sprintf("unknown domain %q", s))
	}
	return d, nil
}

// RequestTopic is the gateway→worker topic, e.g. stream_app1_app3.
func (d Domain) RequestTopic() string {
	return topic(gatewayApp, workerApps[d])
}

// ResponseTopic is the worker→gateway topic, e.g. stream_app3_app1.
func (d Domain) ResponseTopic() string {
	return topic(workerApps[d], gatewayApp)
}

func topic(producer, consumer string) string {
	return "stream_" + producer + "_" + consumer
}
