package domain

import "encoding/json"

// Registry commands exchanged with the external alias registry. The command
// tag travels inside the JSON body; the correlation id travels on the
// transport message, not in the body.
const (
	CommandGenerateAlias        = "generateAlias"
	CommandBulkGenerateAlias    = "bulkGenerateAlias"
	CommandRegisterEndpointDFSP = "registerEndpointDFSP"
)

// RegistryEnvelope is the wire shape of every message on the registry queues.
type RegistryEnvelope struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

// AliasRequestMerchant is the per-merchant payload handed to the registry for
// alias generation. It deliberately omits created_by.
type AliasRequestMerchant struct {
	ID               int64             `json:"id"`
	TradingName      string            `json:"trading_name"`
	DFSPID           int64             `json:"dfsp_id"`
	CheckoutCounters []CheckoutCounter `json:"checkout_counters"`
}

// AliasReplyRecord is one record of a bulkGenerateAlias reply. Records are
// applied independently of their siblings.
type AliasReplyRecord struct {
	MerchantID        int64  `json:"merchant_id"`
	CheckoutCounterID int64  `json:"checkout_counter_id"`
	AliasValue        string `json:"alias_value"`
}

// EndpointRegistration asks the registry to register a DFSP endpoint.
type EndpointRegistration struct {
	DFSPID      int64  `json:"dfsp_id"`
	DFSPName    string `json:"dfsp_name"`
	EndpointURL string `json:"endpoint_url"`
}
