package common

// SourceTokenHeaderName carries the Source System API token on outbound
// requests.
const SourceTokenHeaderName = "DOLAPIKEY"

// RoutingKeyParam is the query parameter the Target System reads the
// company routing key from.
const RoutingKeyParam = "ur"

// SourceCredentialName is the vault service name of the Source System login.
const SourceCredentialName = "source_api"
