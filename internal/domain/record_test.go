package domain

import "testing"

func TestRecordApplyMergesPartialWrites(t *testing.T) {
	var r Record

	r.Apply(Update{Symbol: "XAUUSD", Price: F64(100)})
	if !r.HasPrice || r.Price != 100 {
		t.Fatalf("expected price 100, got %+v", r)
	}
	if r.HasChange {
		t.Fatalf("change should be unset after price-only write")
	}

	r.Apply(Update{Symbol: "XAUUSD", ChangePercent: F64(5)})
	if !r.HasPrice || r.Price != 100 {
		t.Fatalf("price lost after change-only write: %+v", r)
	}
	if !r.HasChange || r.ChangePercent != 5 {
		t.Fatalf("expected change 5, got %+v", r)
	}
}

func TestRecordApplyConvertedIndependent(t *testing.T) {
	var r Record
	r.Apply(Update{Price: F64(4300), ChangePercent: F64(1.2)})
	r.Apply(Update{Converted: F64(981.5)})

	if r.Price != 4300 || r.ChangePercent != 1.2 {
		t.Fatalf("converted-only write clobbered other fields: %+v", r)
	}
	if !r.HasConverted || r.Converted != 981.5 {
		t.Fatalf("expected converted 981.5, got %+v", r)
	}
}

func TestRecordApplyOverwrites(t *testing.T) {
	var r Record
	r.Apply(Update{Price: F64(1), ChangePercent: F64(2)})
	r.Apply(Update{Price: F64(3), ChangePercent: F64(-4)})
	if r.Price != 3 || r.ChangePercent != -4 {
		t.Fatalf("expected latest values, got %+v", r)
	}
}

func TestRecordApplyEquityFlags(t *testing.T) {
	var r Record
	r.Apply(Update{Price: F64(3400), ChangePercent: F64(0.5), Equity: true, Foreign: false})
	if !r.Equity || r.Foreign {
		t.Fatalf("expected domestic equity flags, got %+v", r)
	}
	r.Apply(Update{Price: F64(21000), ChangePercent: F64(-0.8), Equity: true, Foreign: true})
	if !r.Equity || !r.Foreign {
		t.Fatalf("expected foreign equity flags, got %+v", r)
	}
}
