package db

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"querydesk/models"
)

const (
	sqlFilePrefix = "sql_file:"
	chatPrefix    = "chat:"
)

type DB struct {
	badgerDB *badger.DB
}

// New opens the store at dbPath. An empty path opens an in-memory store.
func New(dbPath string) (*DB, error) {
	opts := badger.DefaultOptions(dbPath)
	if dbPath == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // badger's own logging is too chatty

	badgerDB, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DB{badgerDB: badgerDB}, nil
}

func (d *DB) Close() error {
	return d.badgerDB.Close()
}

func (d *DB) StoreSQLFile(name string, content string) error {
	return d.badgerDB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sqlFilePrefix+name), []byte(content))
	})
}

func (d *DB) GetSQLFiles() ([]models.SQLFile, error) {
	var sqlFiles []models.SQLFile

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sqlFilePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), sqlFilePrefix)

			err := item.Value(func(val []byte) error {
				sqlFiles = append(sqlFiles, models.SQLFile{
					Name:    name,
					Content: string(val),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return sqlFiles, err
}

// LoadSQLFilesFromDir reads every *.sql file below dir, creating dir if missing.
func (d *DB) LoadSQLFilesFromDir(dir string) ([]models.SQLFile, error) {
	var sqlFiles []models.SQLFile

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create SQL files directory: %w", err)
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(strings.ToLower(info.Name()), ".sql") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sqlFiles = append(sqlFiles, models.SQLFile{
			Name:    info.Name(),
			Content: string(content),
		})
		return nil
	})

	return sqlFiles, err
}

func chatUserPrefix(userID string) string {
	return chatPrefix + url.QueryEscape(userID) + ":"
}

func chatKey(userID string, id int) []byte {
	// zero padded so that key order is ID order
	return []byte(fmt.Sprintf("%s%010d", chatUserPrefix(userID), id))
}

// StoreChatEntries persists entries for a user, keyed by entry ID.
func (d *DB) StoreChatEntries(userID string, entries ...models.ChatEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return d.badgerDB.Update(func(txn *badger.Txn) error {
		for _, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := txn.Set(chatKey(userID, e.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChatEntries returns a user's stored entries in ID order.
func (d *DB) GetChatEntries(userID string) ([]models.ChatEntry, error) {
	var entries []models.ChatEntry

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chatUserPrefix(userID))
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e models.ChatEntry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("corrupt chat entry %s: %w", it.Item().Key(), err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return entries, err
}

// ClearChatEntries deletes every stored entry of a user.
func (d *DB) ClearChatEntries(userID string) error {
	prefix := []byte(chatUserPrefix(userID))

	var keys [][]byte
	err := d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := d.badgerDB.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("failed to delete chat entry: %w", err)
		}
	}
	return wb.Flush()
}
