package schema

// Variable-field tags from the SIP v2 contract.
const (
	TagPatronID            = "AA"
	TagItemID              = "AB"
	TagTerminalPassword    = "AC"
	TagPatronPassword      = "AD"
	TagPersonalName        = "AE"
	TagScreenMessage       = "AF"
	TagPrintLine           = "AG"
	TagDueDate             = "AH"
	TagTitleID             = "AJ"
	TagLibraryName         = "AM"
	TagTerminalLocation    = "AN"
	TagInstitutionID       = "AO"
	TagCurrentLocation     = "AP"
	TagPermanentLocation   = "AQ"
	TagCurrencyType        = "BH"
	TagCancel              = "BI"
	TagValidPatron         = "BL"
	TagFeeAmount           = "BV"
	TagSupportedMessages   = "BX"
	TagHoldItemsLimit      = "BZ"
	TagOverdueItemsLimit   = "CA"
	TagChargedItemsLimit   = "CB"
	TagHoldQueueLength     = "CF"
	TagMediaType           = "CK"
	TagLoginUserID         = "CN"
	TagLoginPassword       = "CO"
	TagLocationCode        = "CP"
	TagValidPatronPassword = "CQ"
)

var tagLabels = map[string]string{
	TagPatronID:            "patron identifier",
	TagItemID:              "item identifier",
	TagTerminalPassword:    "terminal password",
	TagPatronPassword:      "patron password",
	TagPersonalName:        "personal name",
	TagScreenMessage:       "screen message",
	TagPrintLine:           "print line",
	TagDueDate:             "due date",
	TagTitleID:             "title identifier",
	TagLibraryName:         "library name",
	TagTerminalLocation:    "terminal location",
	TagInstitutionID:       "institution id",
	TagCurrentLocation:     "current location",
	TagPermanentLocation:   "permanent location",
	TagCurrencyType:        "currency type",
	TagCancel:              "cancel",
	TagValidPatron:         "valid patron",
	TagFeeAmount:           "fee amount",
	TagSupportedMessages:   "supported messages",
	TagHoldItemsLimit:      "hold items limit",
	TagOverdueItemsLimit:   "overdue items limit",
	TagChargedItemsLimit:   "charged items limit",
	TagHoldQueueLength:     "hold queue length",
	TagMediaType:           "media type",
	TagLoginUserID:         "login user id",
	TagLoginPassword:       "login password",
	TagLocationCode:        "location code",
	TagValidPatronPassword: "valid patron password",
}

// TagLabel returns the human-readable label for a variable-field tag, or
// "unknown" for tags outside the dictionary. Unknown tags are still legal on
// the wire.
func TagLabel(tag string) string {
	if label, ok := tagLabels[tag]; ok {
		return label
	}
	return "unknown"
}
