package loadtest

import (
	"sync"
	"testing"
)

func TestResultTable_ConcurrentAppend(t *testing.T) {
	table := NewResultTable("run")

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				table.Append(Record{Platform: "p", InputID: "img", LoadLevel: w*100 + i})
			}
		}(w)
	}
	wg.Wait()

	if table.Len() != 1600 {
		t.Fatalf("expected 1600 records, got %d", table.Len())
	}
	if dups := table.Duplicates(); len(dups) != 0 {
		t.Errorf("expected no duplicates, got %d", len(dups))
	}
}

func TestResultTable_SnapshotIsImmutable(t *testing.T) {
	table := NewResultTable("run")
	table.Append(Record{Platform: "EC2", InputID: "a", F1: 1})

	snap := table.Records()
	snap[0].F1 = 0

	if table.Records()[0].F1 != 1 {
		t.Error("mutating a snapshot must not change the table")
	}
}

func TestResultTable_Duplicates(t *testing.T) {
	table := NewResultTable("run")
	r := Record{Platform: "EC2", InputID: "a", LoadLevel: 10}
	table.Append(r, r, r, Record{Platform: "EC2", InputID: "a", LoadLevel: 50})

	dups := table.Duplicates()
	if len(dups) != 1 || dups[0] != r {
		t.Errorf("expected one duplicated triple, got %v", dups)
	}
}

func TestSortRecords(t *testing.T) {
	records := []Record{
		{Platform: "b", InputID: "1", LoadLevel: 50},
		{Platform: "a", InputID: "2", LoadLevel: 10},
		{Platform: "a", InputID: "1", LoadLevel: 10},
	}
	SortRecords(records)

	if records[0].InputID != "1" || records[1].InputID != "2" || records[2].LoadLevel != 50 {
		t.Errorf("unexpected order: %v", records)
	}
}
