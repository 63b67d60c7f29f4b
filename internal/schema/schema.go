// Package schema defines the header contract shared by the row (CSV) and
// columnar (Parquet) encodings of the bulk-import files.
//
// Column names carry two pieces of information:
//
//   - an identifier role, e.g. "bank_id:ID(Bank){label:Bank}" or
//     ":START_ID(Account)", marking the column as an opaque identifier and
//     naming the entity kind it references;
//   - an optional physical-type suffix (":int", ":float", ":boolean") on
//     property columns.
//
// The row encoding writes the full identifier-tagged names. The columnar
// encoding can only express a single generic identifier type, so its headers
// are derived by stripping the entity-kind qualifier (ColumnarName). The
// derivation is a pure function of the row-encoding name; both sink
// implementations consume it instead of duplicating naming logic.
package schema

import (
	"fmt"
	"strings"
)

// Expected input headers, compared as ordered sequences. Any deviation is a
// fatal schema error before the first data row is processed.
var (
	TransactionHeaders = []string{
		"Timestamp",
		"From Bank",
		"FromAccount",
		"To Bank",
		"ToAccount",
		"Amount Received",
		"Receiving Currency",
		"Amount Paid",
		"Payment Currency",
		"Payment Format",
		"Is Laundering",
	}

	AccountHeaders = []string{
		"Bank Name",
		"Bank ID",
		"Account Number",
		"Entity ID",
		"Entity Name",
	}
)

// Output field lists, in row-encoding form and emission order.
//
// "to_aAccount" is the property name the downstream graph schema has always
// used; keep it verbatim.
var (
	TransactionFields = []string{
		"transaction_id:ID(Transaction)",
		"timestamp",
		"timestamp_date:datetime",
		"from_bank:int",
		"from_account",
		"to_bank:int",
		"to_aAccount",
		"amount_received:float",
		"receiving_currency",
		"amount_paid:float",
		"payment_currency",
		"payment_format",
		"is_laundering:boolean",
	}

	FromRelFields = []string{":START_ID(Account)", ":END_ID(Transaction)"}
	ToRelFields   = []string{":START_ID(Transaction)", ":END_ID(Account)"}

	BankFields    = []string{"bank_id:ID(Bank){label:Bank}", "bank_name"}
	EntityFields  = []string{"entity_id:ID(Entity){label:Entity}", "entity_name"}
	AccountFields = []string{"account_number:ID(Account){label:Account}"}

	EntityOwnsAccountFields = []string{":START_ID(Entity)", ":END_ID(Account)"}
	AccountPartOfBankFields = []string{":START_ID(Account)", ":END_ID(Bank)"}
)

// ValidateHeaders compares actual against expected as ordered sequences and
// reports both on mismatch. Extra, missing, or reordered columns all fail.
func ValidateHeaders(expected, actual []string) error {
	match := len(expected) == len(actual)
	if match {
		for i := range expected {
			if expected[i] != actual[i] {
				match = false
				break
			}
		}
	}
	if !match {
		return fmt.Errorf("unexpected headers:\nexpected: %q\nactual:   %q", expected, actual)
	}
	return nil
}

// IsID reports whether a column carries an identifier role. Identifier
// columns are never type-coerced; the loader treats all identifiers as
// opaque strings.
func IsID(name string) bool {
	return strings.Contains(name, ":ID(") ||
		strings.HasPrefix(name, ":START_ID") ||
		strings.HasPrefix(name, ":END_ID")
}

// Kind is the physical type a column's name declares via its suffix.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

// ColumnKind resolves the declared physical type of a column. Identifier
// columns are always strings regardless of shape; ":datetime" stays a string
// (the loader parses it from the header convention).
func ColumnKind(name string) Kind {
	if IsID(name) {
		return KindString
	}
	switch lower := strings.ToLower(name); {
	case strings.HasSuffix(lower, ":int"):
		return KindInt
	case strings.HasSuffix(lower, ":float"):
		return KindFloat
	case strings.HasSuffix(lower, ":boolean"):
		return KindBool
	}
	return KindString
}

// ColumnarName derives the columnar-encoding header from a row-encoding
// header. The mapping is deterministic and total:
//
//	"bank_id:ID(Bank){label:Bank}" -> "bank_id:ID"
//	":START_ID(Account)"           -> ":START_ID"
//	":END_ID(Transaction)"         -> ":END_ID"
//	anything else                  -> unchanged
func ColumnarName(name string) string {
	if i := strings.Index(name, ":ID("); i >= 0 {
		return name[:i] + ":ID"
	}
	if strings.HasPrefix(name, ":START_ID(") {
		return ":START_ID"
	}
	if strings.HasPrefix(name, ":END_ID(") {
		return ":END_ID"
	}
	return name
}
