package mess_test

import (
	"testing"

	"github.com/trezcool/makazi/core/mess"
	dummydb "github.com/trezcool/makazi/storage/database/dummy"
)

func setup(t *testing.T) mess.ServiceInterface {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db failed: %v", err)
	}
	return mess.NewService(dummydb.NewMessRepository(db))
}

func Test_Service_Set(t *testing.T) {
	svc := setup(t)

	e, err := svc.Set(mess.SetMenuEntry{Block: "A", Weekday: 1, Meal: "lunch", Items: "rice, beans"}, "wardena")
	if err != nil {
		t.Fatalf("Set() failed, %v", err)
	}
	if e.UpdatedBy != "wardena" {
		t.Errorf("Set() updatedBy = %v; want wardena", e.UpdatedBy)
	}

	t.Run("same slot is overwritten", func(t *testing.T) {
		got, err := svc.Set(mess.SetMenuEntry{Block: "A", Weekday: 1, Meal: "lunch", Items: "ugali, sukuma"}, "admin")
		if err != nil {
			t.Fatalf("Set() failed, %v", err)
		}
		if got.ID != e.ID {
			t.Errorf("Set() id = %v; want %v (upsert)", got.ID, e.ID)
		}
		entries, err := svc.Query(&mess.QueryFilter{Block: "A"}, nil)
		if err != nil {
			t.Fatalf("Query() failed, %v", err)
		}
		if len(entries) != 1 || entries[0].Items != "ugali, sukuma" || entries[0].UpdatedBy != "admin" {
			t.Errorf("Query() = %+v; want the overwritten entry", entries)
		}
	})

	t.Run("other slots are separate", func(t *testing.T) {
		if _, err := svc.Set(mess.SetMenuEntry{Block: "A", Weekday: 1, Meal: "dinner", Items: "chapati"}, "admin"); err != nil {
			t.Fatalf("Set() failed, %v", err)
		}
		entries, err := svc.Query(&mess.QueryFilter{Block: "A"}, nil)
		if err != nil {
			t.Fatalf("Query() failed, %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("Query() = %v entries; want 2", len(entries))
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := svc.Delete(e.ID); err != nil {
			t.Fatalf("Delete() failed, %v", err)
		}
		if err := svc.Delete(e.ID); err != mess.ErrNotFound {
			t.Errorf("Delete() error = %v, wantErr %v", err, mess.ErrNotFound)
		}
	})
}
