package schema

import (
	"reflect"
	"testing"
)

/*
Contract behavior verified here:
  - MissingColumns reports every absent required column, in declaration
    order, and ignores optional ones.
  - The canned contracts require exactly the columns the loaders depend on.
*/

func TestContract_MissingColumns(t *testing.T) {
	t.Parallel()

	c := TransactionsContract()

	t.Run("full_header_satisfies", func(t *testing.T) {
		t.Parallel()

		header := []string{"transaction_id", "merchant_id", "txn_ts_utc", "amount", "status", "payment_method"}
		if missing := c.MissingColumns(header); len(missing) != 0 {
			t.Fatalf("MissingColumns = %v, want none", missing)
		}
	})

	t.Run("optional_column_absent_is_fine", func(t *testing.T) {
		t.Parallel()

		header := []string{"transaction_id", "merchant_id", "txn_ts_utc", "amount", "status"}
		if missing := c.MissingColumns(header); len(missing) != 0 {
			t.Fatalf("MissingColumns = %v, want none without payment_method", missing)
		}
	})

	t.Run("reports_all_missing_in_order", func(t *testing.T) {
		t.Parallel()

		header := []string{"transaction_id", "merchant_id"}
		want := []string{"txn_ts_utc", "amount", "status"}
		if missing := c.MissingColumns(header); !reflect.DeepEqual(missing, want) {
			t.Fatalf("MissingColumns = %v, want %v", missing, want)
		}
	})

	t.Run("nil_header_misses_everything_required", func(t *testing.T) {
		t.Parallel()

		want := []string{"transaction_id", "merchant_id", "txn_ts_utc", "amount", "status"}
		if missing := c.MissingColumns(nil); !reflect.DeepEqual(missing, want) {
			t.Fatalf("MissingColumns(nil) = %v, want %v", missing, want)
		}
	})
}

func TestCannedContracts(t *testing.T) {
	t.Parallel()

	if got, want := MerchantsContract().RequiredColumns(), []string{"merchant_id", "merchant_name"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("merchants required = %v, want %v", got, want)
	}
	if got, want := TransactionsContract().RequiredColumns(), []string{"transaction_id", "merchant_id", "txn_ts_utc", "amount", "status"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("transactions required = %v, want %v", got, want)
	}

	c := TransactionsContract()
	var status *Field
	for i := range c.Fields {
		if c.Fields[i].Name == "status" {
			status = &c.Fields[i]
		}
	}
	if status == nil {
		t.Fatalf("transactions contract has no status field")
	}
	if !reflect.DeepEqual(status.Enum, []string{StatusApproved, StatusDeclined}) {
		t.Fatalf("status enum = %v, want approved/declined only", status.Enum)
	}
}
