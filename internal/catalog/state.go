package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ProductDesk/internal/kv"
	"ProductDesk/internal/product"
)

const (
	keyRecords    = "records"
	keyLastUsedID = "lastUsedId"
	keySearchMode = "searchMode"
)

var stateKeys = []string{keyRecords, keyLastUsedID, keySearchMode}

type State struct {
	Records    []product.Product `json:"records"`
	LastUsedID int64             `json:"lastUsedId"`
	SearchMode SearchMode        `json:"searchMode"`

	unknownMode string
}

func readState(ctx context.Context, store kv.Store) (State, error) {
	st := State{Records: []product.Product{}, SearchMode: ByTitle}

	raw, ok, err := store.Get(ctx, keyRecords)
	if err != nil {
		return State{}, err
	}
	if ok {
		var records []product.Product
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return State{}, fmt.Errorf("%w: records: %v", ErrStateCorrupted, err)
		}
		if records != nil {
			st.Records = records
		}
	}

	raw, ok, err = store.Get(ctx, keyLastUsedID)
	if err != nil {
		return State{}, err
	}
	if ok {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id < 0 {
			return State{}, fmt.Errorf("%w: lastUsedId %q", ErrStateCorrupted, raw)
		}
		st.LastUsedID = id
	}

	// A counter behind the stored ids would hand out an id that is still in use.
	for _, p := range st.Records {
		st.LastUsedID = max(st.LastUsedID, p.ID)
	}

	raw, ok, err = store.Get(ctx, keySearchMode)
	if err != nil {
		return State{}, err
	}
	if ok && raw != "" {
		mode, err := ParseSearchMode(raw)
		if err != nil {
			st.unknownMode = raw
		} else {
			st.SearchMode = mode
		}
	}

	return st, nil
}

// writeState stops at the first failed key; earlier keys stay written.
func writeState(ctx context.Context, store kv.Store, st State) error {
	records := st.Records
	if records == nil {
		records = []product.Product{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	if err := store.Set(ctx, keyRecords, string(b)); err != nil {
		return err
	}
	if err := store.Set(ctx, keyLastUsedID, strconv.FormatInt(st.LastUsedID, 10)); err != nil {
		return err
	}
	return store.Set(ctx, keySearchMode, string(st.SearchMode))
}
