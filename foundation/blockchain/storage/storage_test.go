package storage_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage/leveldb"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func record() storage.Record {
	genesis := database.Genesis()
	block := database.Block{
		Index:        1,
		PreviousHash: genesis.Hash(),
		Transactions: []database.Transaction{
			database.NewRewardTransaction("alice", 10),
		},
		Proof:     388,
		TimeStamp: 1700000000,
	}

	return storage.Record{
		Chain: []database.Block{genesis, block},
		Pool: []database.Transaction{
			database.NewTransaction("alice", "bob", "abcd", 2.5),
		},
		Peers: []string{"localhost:9081", "localhost:9082"},
	}
}

func Test_Encode(t *testing.T) {
	t.Log("Given the need to encode the node record.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a record with every part set.", testID)
		{
			data, err := storage.Encode(record())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to encode the record: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to encode the record.", success, testID)

			lines := strings.Split(string(data), "\n")
			if len(lines) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould produce three lines: %d", failed, testID, len(lines))
			}
			t.Logf("\t%s\tTest %d:\tShould produce three lines.", success, testID)

			exp := `[{"sender":"alice","recipient":"bob","signature":"abcd","amount":2.5}]`
			if lines[1] != exp {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, lines[1])
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould encode the pool with the wire field order.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould encode the pool with the wire field order.", success, testID)

			if lines[2] != `["localhost:9081","localhost:9082"]` {
				t.Fatalf("\t%s\tTest %d:\tShould encode the peers: %s", failed, testID, lines[2])
			}
			t.Logf("\t%s\tTest %d:\tShould encode the peers.", success, testID)

			got, err := storage.Decode(data)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to decode the record: %v", failed, testID, err)
			}

			exp2 := record()
			if got.Chain[1].Hash() != exp2.Chain[1].Hash() || got.Pool[0] != exp2.Pool[0] || len(got.Peers) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould get back the same record: %+v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the same record.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling an empty record.", testID)
		{
			data, err := storage.Encode(storage.Record{Chain: []database.Block{database.Genesis()}})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to encode the record: %v", failed, testID, err)
			}

			exp := `[{"index":0,"previous_hash":"","transactions":[],"proof":100,"timestamp":0}]` + "\n[]\n[]"
			if string(data) != exp {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, data)
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould encode empty lists as arrays.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould encode empty lists as arrays.", success, testID)
		}
	}
}

func Test_Decode(t *testing.T) {
	type table struct {
		name string
		data string
	}

	tt := []table{
		{name: "empty", data: ""},
		{name: "short", data: "[]\n[]"},
		{name: "garbage", data: "not json\n[]\n[]"},
		{name: "nochain", data: "[]\n[]\n[]"},
		{name: "badpeers", data: `[{"index":0}]` + "\n[]\n{"},
	}

	t.Log("Given the need to reject corrupt records.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s record.", testID, tst.name)
			{
				f := func(t *testing.T) {
					if _, err := storage.Decode([]byte(tst.data)); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould fail to decode.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould fail to decode.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Storage(t *testing.T) {
	type table struct {
		name    string
		storage func(t *testing.T) storage.Storage
	}

	tt := []table{
		{
			name: "disk",
			storage: func(t *testing.T) storage.Storage {
				d, err := storage.NewDisk(t.TempDir(), "5000")
				if err != nil {
					t.Fatalf("Should be able to open the disk storage: %v", err)
				}
				return d
			},
		},
		{
			name: "memory",
			storage: func(t *testing.T) storage.Storage {
				return memory.New()
			},
		},
		{
			name: "leveldb",
			storage: func(t *testing.T) storage.Storage {
				l, err := leveldb.New(t.TempDir(), "5000")
				if err != nil {
					t.Fatalf("Should be able to open the leveldb storage: %v", err)
				}
				return l
			},
		},
	}

	t.Log("Given the need to persist the node record.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s storage.", testID, tst.name)
			{
				f := func(t *testing.T) {
					strg := tst.storage(t)
					defer strg.Close()

					if _, err := strg.Load(); !errors.Is(err, storage.ErrNotFound) {
						t.Fatalf("\t%s\tTest %d:\tShould report a missing record: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould report a missing record.", success, testID)

					if err := strg.Save(record()); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to save: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to save.", success, testID)

					rec := record()
					rec.Peers = []string{"localhost:9083"}
					if err := strg.Save(rec); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to save again: %v", failed, testID, err)
					}

					got, err := strg.Load()
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to load: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to load.", success, testID)

					if len(got.Chain) != 2 || len(got.Pool) != 1 || len(got.Peers) != 1 || got.Peers[0] != "localhost:9083" {
						t.Fatalf("\t%s\tTest %d:\tShould get back the last record: %+v", failed, testID, got)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the last record.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_DiskFile(t *testing.T) {
	t.Log("Given the need to keep one file per node.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen saving the record.", testID)
		{
			d, err := storage.NewDisk(t.TempDir(), "5001")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the disk storage: %v", failed, testID, err)
			}

			if !strings.HasSuffix(d.Path(), "blockchain-5001.txt") {
				t.Fatalf("\t%s\tTest %d:\tShould name the file after the node: %s", failed, testID, d.Path())
			}
			t.Logf("\t%s\tTest %d:\tShould name the file after the node.", success, testID)

			if err := d.Save(record()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to save: %v", failed, testID, err)
			}

			if _, err := os.Stat(d.Path() + ".tmp"); !os.IsNotExist(err) {
				t.Fatalf("\t%s\tTest %d:\tShould not leave the temporary file behind.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not leave the temporary file behind.", success, testID)

			if err := os.WriteFile(d.Path(), []byte("corrupt"), 0600); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to corrupt the file: %v", failed, testID, err)
			}

			if _, err := d.Load(); err == nil || errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould report a corrupt record: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report a corrupt record.", success, testID)
		}
	}
}
