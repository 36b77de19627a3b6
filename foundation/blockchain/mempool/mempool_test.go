package mempool_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.Transaction
	}

	tt := []table{
		{
			name: "basic",
			txs: []database.Transaction{
				database.NewTransaction("alice", "bob", "s1", 10),
				database.NewTransaction("bob", "carol", "s2", 5),
				database.NewTransaction("carol", "alice", "s3", 1),
				database.NewTransaction("alice", "bob", "s1", 10),
			},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for _, tx := range tst.txs {
						mp.Add(tx)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to add new transactions.", success, testID)

					for i, tx := range mp.Copy() {
						if tx != tst.txs[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.txs[i])
							t.Fatalf("\t%s\tTest %d:\tShould keep the pool order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep the pool order.", success, testID)

					cpy := mp.Copy()
					cpy[0].Amount = 1000
					if mp.Copy()[0].Amount == 1000 {
						t.Fatalf("\t%s\tTest %d:\tShould not expose the pool through a copy.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not expose the pool through a copy.", success, testID)

					if n := mp.DeleteMatching([]database.Transaction{tst.txs[0], database.NewTransaction("x", "y", "z", 1)}); n != 2 {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, n)
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, 2)
						t.Fatalf("\t%s\tTest %d:\tShould remove every matching transaction.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould remove every matching transaction.", success, testID)

					if mp.Count() != 2 {
						t.Fatalf("\t%s\tTest %d:\tShould have two transactions left: %d", failed, testID, mp.Count())
					}
					t.Logf("\t%s\tTest %d:\tShould have two transactions left.", success, testID)

					mp.Truncate()
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate the pool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate the pool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestSnapshot(t *testing.T) {
	t.Log("Given the need to remove exactly the mined transactions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen transactions arrive after the snapshot.", testID)
		{
			tx := database.NewTransaction("alice", "bob", "s1", 10)

			mp := mempool.New()
			mp.Add(tx)
			mp.Add(database.NewTransaction("bob", "carol", "s2", 5))

			snap := mp.Snapshot()
			if snap.Len() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould capture the pool: %d", failed, testID, snap.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould capture the pool.", success, testID)

			// The same transaction again plus a new one.
			mp.Add(tx)
			mp.Add(database.NewTransaction("carol", "dave", "s3", 1))

			if n := mp.RemoveSnapshot(snap); n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould remove the snapshot entries only: %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould remove the snapshot entries only.", success, testID)

			left := mp.Copy()
			if len(left) != 2 || left[0] != tx || left[1].Recipient != "dave" {
				t.Fatalf("\t%s\tTest %d:\tShould keep the later entries: %v", failed, testID, left)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the later entries.", success, testID)

			if n := mp.RemoveSnapshot(snap); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not remove anything twice: %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould not remove anything twice.", success, testID)
		}
	}
}
