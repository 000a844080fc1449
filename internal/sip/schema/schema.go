package schema

// Message codes from the SIP v2 contract. Requests and their paired
// responses both get schema entries so either direction parses.
const (
	CodeLogin            = "93"
	CodeLoginResponse    = "94"
	CodeSCStatus         = "99"
	CodeACSStatus        = "98"
	CodeItemInfo         = "17"
	CodeItemInfoResponse = "18"
	CodeCheckin          = "09"
	CodeCheckinResponse  = "10"
	CodePatronStatus     = "23"
	CodePatronStatusResp = "24"
	CodePatronInfo       = "63"
	CodePatronInfoResp   = "64"
)

// CodeWidth is the fixed width of a message code on the wire.
const CodeWidth = 2

// FixedSpec declares one positional field: its display name and wire width.
type FixedSpec struct {
	Name  string
	Width int
}

// MessageSpec defines the fixed-field shape of one message code.
type MessageSpec struct {
	Code  string
	Name  string
	Fixed []FixedSpec
}

// FixedWidth returns the total width of the spec's fixed-field region.
func (s MessageSpec) FixedWidth() int {
	total := 0
	for _, f := range s.Fixed {
		total += f.Width
	}
	return total
}

var specs = map[string]MessageSpec{
	CodeLogin: {
		Code: CodeLogin,
		Name: "Login",
		Fixed: []FixedSpec{
			{Name: "UID algorithm", Width: 1},
			{Name: "PWD algorithm", Width: 1},
		},
	},
	CodeLoginResponse: {
		Code: CodeLoginResponse,
		Name: "Login Response",
		Fixed: []FixedSpec{
			{Name: "ok", Width: 1},
		},
	},
	CodeSCStatus: {
		Code: CodeSCStatus,
		Name: "SC Status",
		Fixed: []FixedSpec{
			{Name: "status code", Width: 1},
			{Name: "max print width", Width: 3},
			{Name: "protocol version", Width: 4},
		},
	},
	CodeACSStatus: {
		Code: CodeACSStatus,
		Name: "ACS Status",
		Fixed: []FixedSpec{
			{Name: "on-line status", Width: 1},
			{Name: "checkin ok", Width: 1},
			{Name: "checkout ok", Width: 1},
			{Name: "ACS renewal policy", Width: 1},
			{Name: "status update ok", Width: 1},
			{Name: "off-line ok", Width: 1},
			{Name: "timeout period", Width: 3},
			{Name: "retries allowed", Width: 3},
			{Name: "date / time sync", Width: 18},
			{Name: "protocol version", Width: 4},
		},
	},
	CodeItemInfo: {
		Code: CodeItemInfo,
		Name: "Item Information",
		Fixed: []FixedSpec{
			{Name: "transaction date", Width: 18},
		},
	},
	CodeItemInfoResponse: {
		Code: CodeItemInfoResponse,
		Name: "Item Information Response",
		Fixed: []FixedSpec{
			{Name: "circulation status", Width: 2},
			{Name: "security marker", Width: 2},
			{Name: "fee type", Width: 2},
			{Name: "transaction date", Width: 18},
		},
	},
	CodeCheckin: {
		Code: CodeCheckin,
		Name: "Checkin",
		Fixed: []FixedSpec{
			{Name: "no block", Width: 1},
			{Name: "transaction date", Width: 18},
			{Name: "return date", Width: 18},
		},
	},
	CodeCheckinResponse: {
		Code: CodeCheckinResponse,
		Name: "Checkin Response",
		Fixed: []FixedSpec{
			{Name: "ok", Width: 1},
			{Name: "resensitize", Width: 1},
			{Name: "magnetic media", Width: 1},
			{Name: "alert", Width: 1},
			{Name: "transaction date", Width: 18},
		},
	},
	CodePatronStatus: {
		Code: CodePatronStatus,
		Name: "Patron Status Request",
		Fixed: []FixedSpec{
			{Name: "language", Width: 3},
			{Name: "transaction date", Width: 18},
		},
	},
	CodePatronStatusResp: {
		Code: CodePatronStatusResp,
		Name: "Patron Status Response",
		Fixed: []FixedSpec{
			{Name: "patron status", Width: 14},
			{Name: "language", Width: 3},
			{Name: "transaction date", Width: 18},
		},
	},
	CodePatronInfo: {
		Code: CodePatronInfo,
		Name: "Patron Information",
		Fixed: []FixedSpec{
			{Name: "language", Width: 3},
			{Name: "transaction date", Width: 18},
			{Name: "summary", Width: 10},
		},
	},
	CodePatronInfoResp: {
		Code: CodePatronInfoResp,
		Name: "Patron Information Response",
		Fixed: []FixedSpec{
			{Name: "patron status", Width: 14},
			{Name: "language", Width: 3},
			{Name: "transaction date", Width: 18},
			{Name: "hold items count", Width: 4},
			{Name: "overdue items count", Width: 4},
			{Name: "charged items count", Width: 4},
			{Name: "fine items count", Width: 4},
			{Name: "recall items count", Width: 4},
			{Name: "unavailable holds count", Width: 4},
		},
	},
}

// Lookup returns the message spec for code.
func Lookup(code string) (MessageSpec, bool) {
	spec, ok := specs[code]
	return spec, ok
}

// Codes returns every known message code. Order is not defined.
func Codes() []string {
	out := make([]string, 0, len(specs))
	for code := range specs {
		out = append(out, code)
	}
	return out
}
