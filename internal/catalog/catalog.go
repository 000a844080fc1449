// Package catalog builds protocol messages from resolved session inputs.
// Each builder is a pure function of a Request; validation failures surface
// before any network interaction happens.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"sipcheck/internal/sip"
	"sipcheck/internal/sip/schema"
	"sipcheck/internal/sip/sipdate"
)

// Transaction names accepted by Build.
const (
	Login        = "login"
	SCStatus     = "sc-status"
	ItemInfo     = "item-information"
	Checkin      = "checkin"
	PatronStatus = "patron-status"
	PatronInfo   = "patron-information"
)

var ErrUnknownTransaction = errors.New("catalog: unknown transaction")

// ValidationError reports a missing or malformed transaction input. It is
// raised before a message is assembled, so nothing reaches the wire.
type ValidationError struct {
	Transaction string
	Input       string
	Reason      string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("catalog: %s: input %q %s", e.Transaction, e.Input, e.Reason)
}

// Request is the resolved input set for building one message. Optional
// inputs are empty strings; a builder that allows an optional input omits
// the field entirely when it is empty.
type Request struct {
	Institution      string
	LoginUserID      string
	LoginPassword    string
	LocationCode     string
	TerminalPassword string
	ItemID           string
	PatronID         string
	PatronPassword   string
	Summary          string
	CancelCheckin    bool
}

// SummaryWidth is the required length of the patron-information summary.
const SummaryWidth = 10

// Catalog builds messages with a fixed clock source. A nil clock means
// time.Now, which is what the CLI uses; tests inject a frozen clock.
type Catalog struct {
	clock func() time.Time
}

func New(clock func() time.Time) *Catalog {
	if clock == nil {
		clock = time.Now
	}
	return &Catalog{clock: clock}
}

// Names returns the supported transaction names in run-sheet order.
func Names() []string {
	return []string{Login, SCStatus, ItemInfo, Checkin, PatronStatus, PatronInfo}
}

// Build dispatches to the builder for name.
func (c *Catalog) Build(name string, req Request) (*sip.Message, error) {
	switch name {
	case Login:
		return c.Login(req)
	case SCStatus:
		return c.SCStatus(req)
	case ItemInfo:
		return c.ItemInformation(req)
	case Checkin:
		return c.Checkin(req)
	case PatronStatus:
		return c.PatronStatus(req)
	case PatronInfo:
		return c.PatronInformation(req)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransaction, name)
	}
}

// Login builds a 93 message. UID and PWD algorithms are both "0": credentials
// travel in clear text, which is all SIP v2 defines.
func (c *Catalog) Login(req Request) (*sip.Message, error) {
	if req.LoginUserID == "" {
		return nil, ValidationError{Transaction: Login, Input: "login user id", Reason: "is required"}
	}
	if req.LoginPassword == "" {
		return nil, ValidationError{Transaction: Login, Input: "login password", Reason: "is required"}
	}
	return sip.Build(schema.CodeLogin, []string{"0", "0"}, []sip.Field{
		{Tag: schema.TagLoginUserID, Value: req.LoginUserID},
		{Tag: schema.TagLoginPassword, Value: req.LoginPassword},
		{Tag: schema.TagLocationCode, Value: optional(req.LocationCode)},
	})
}

// SCStatus builds a 99 message. It has no required inputs.
func (c *Catalog) SCStatus(req Request) (*sip.Message, error) {
	return sip.Build(schema.CodeSCStatus, []string{"0", "080", "2.00"}, nil)
}

// ItemInformation builds a 17 message.
func (c *Catalog) ItemInformation(req Request) (*sip.Message, error) {
	if req.ItemID == "" {
		return nil, ValidationError{Transaction: ItemInfo, Input: "item id", Reason: "is required"}
	}
	return sip.Build(schema.CodeItemInfo, []string{c.date()}, []sip.Field{
		{Tag: schema.TagInstitutionID, Value: req.Institution},
		{Tag: schema.TagItemID, Value: req.ItemID},
		{Tag: schema.TagTerminalPassword, Value: optional(req.TerminalPassword)},
	})
}

// Checkin builds a 09 message. The cancel flag rides in the BI field; the
// no-block fixed field stays "N" because this client never runs off-line.
func (c *Catalog) Checkin(req Request) (*sip.Message, error) {
	if req.ItemID == "" {
		return nil, ValidationError{Transaction: Checkin, Input: "item id", Reason: "is required"}
	}
	now := c.date()
	cancel := sip.Omitted
	if req.CancelCheckin {
		cancel = "Y"
	}
	return sip.Build(schema.CodeCheckin, []string{"N", now, now}, []sip.Field{
		{Tag: schema.TagCurrentLocation, Value: optional(req.LocationCode)},
		{Tag: schema.TagInstitutionID, Value: req.Institution},
		{Tag: schema.TagItemID, Value: req.ItemID},
		{Tag: schema.TagTerminalPassword, Value: optional(req.TerminalPassword)},
		{Tag: schema.TagCancel, Value: cancel},
	})
}

// PatronStatus builds a 23 message.
func (c *Catalog) PatronStatus(req Request) (*sip.Message, error) {
	if req.PatronID == "" {
		return nil, ValidationError{Transaction: PatronStatus, Input: "patron id", Reason: "is required"}
	}
	return sip.Build(schema.CodePatronStatus, []string{"000", c.date()}, []sip.Field{
		{Tag: schema.TagInstitutionID, Value: req.Institution},
		{Tag: schema.TagPatronID, Value: req.PatronID},
		{Tag: schema.TagTerminalPassword, Value: optional(req.TerminalPassword)},
		{Tag: schema.TagPatronPassword, Value: optional(req.PatronPassword)},
	})
}

// PatronInformation builds a 63 message. The summary string selects which
// detail blocks the server expands and must be exactly ten characters.
func (c *Catalog) PatronInformation(req Request) (*sip.Message, error) {
	if req.PatronID == "" {
		return nil, ValidationError{Transaction: PatronInfo, Input: "patron id", Reason: "is required"}
	}
	if len(req.Summary) != SummaryWidth {
		return nil, ValidationError{
			Transaction: PatronInfo,
			Input:       "summary",
			Reason:      fmt.Sprintf("must be exactly %d characters, got %d", SummaryWidth, len(req.Summary)),
		}
	}
	return sip.Build(schema.CodePatronInfo, []string{"000", c.date(), req.Summary}, []sip.Field{
		{Tag: schema.TagInstitutionID, Value: req.Institution},
		{Tag: schema.TagPatronID, Value: req.PatronID},
		{Tag: schema.TagTerminalPassword, Value: optional(req.TerminalPassword)},
		{Tag: schema.TagPatronPassword, Value: optional(req.PatronPassword)},
	})
}

func (c *Catalog) date() string {
	return sipdate.Format(c.clock())
}

func optional(value string) string {
	if value == "" {
		return sip.Omitted
	}
	return value
}
