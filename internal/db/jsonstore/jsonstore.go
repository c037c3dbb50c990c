// Package jsonstore implements the storage contract on top of a single JSON
// file, standing in for a real backend the way browser local storage would.
// The whole dataset lives in memory and every mutation re-serializes it to
// disk, which is acceptable at demo scale only; the postgresstore backend
// is the indexed variant for anything bigger.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

// JSONStore keeps the three top-level entries of the persisted layout:
// the users collection, the requests collection, and the session pointer.
// The mutex serializes access: HTTP handlers and the alert worker share
// one store instance across goroutines.
type JSONStore struct {
	mu       sync.RWMutex
	fileName string
	Cache    CacheStruct
}

// CacheStruct mirrors the on-disk document exactly.
type CacheStruct struct {
	Users       []models.User    `json:"users"`
	Requests    []models.Request `json:"requests"`
	CurrentUser *models.User     `json:"current_user,omitempty"`
}

func initStoreFile(fileName string) error {
	storeFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(storeFile, `{
	"users": [],
	"requests": []
}`)
	if err != nil {
		return err
	}
	return storeFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cache)
	if err != nil {
		return err
	}

	return nil
}

// New opens (or initializes) the JSON store file. Missing collections are
// initialized to empty sequences; the initialization is idempotent and has
// no effect on subsequent opens.
func New(fileName string) (*JSONStore, error) {
	store := JSONStore{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(store.fileName, &store.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initStoreFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(store.fileName, &store.Cache)
		if err != nil {
			return nil, err
		}
	}

	if store.Cache.Users == nil {
		store.Cache.Users = []models.User{}
	}
	if store.Cache.Requests == nil {
		store.Cache.Requests = []models.Request{}
	}

	return &store, nil
}

// flush re-serializes the whole dataset. A store without a file name (the
// memory backend) keeps everything in the cache only.
func (store *JSONStore) flush() error {
	if store.fileName == "" {
		return nil
	}
	return writeToJSONFile(store.fileName, store.Cache)
}

// CreateUser appends the user to the users collection.
func (store *JSONStore) CreateUser(ctx context.Context, usr *models.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.Cache.Users = append(store.Cache.Users, *usr)

	return store.flush()
}

// FindUserByPhone scans the users collection for a matching phone number.
func (store *JSONStore) FindUserByPhone(ctx context.Context, phone string) (*models.User, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for i := range store.Cache.Users {
		if store.Cache.Users[i].Phone == phone {
			found := store.Cache.Users[i]
			return &found, true, nil
		}
	}

	return nil, false, nil
}

// FindUserByID scans the users collection for a matching id.
func (store *JSONStore) FindUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for i := range store.Cache.Users {
		if store.Cache.Users[i].ID == id {
			found := store.Cache.Users[i]
			return &found, true, nil
		}
	}

	return nil, false, nil
}

// UpdateUser replaces the stored user matched by id. Returns false when the
// id is unknown; the collection is left untouched in that case.
func (store *JSONStore) UpdateUser(ctx context.Context, usr *models.User) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for i := range store.Cache.Users {
		if store.Cache.Users[i].ID == usr.ID {
			store.Cache.Users[i] = *usr
			return true, store.flush()
		}
	}

	return false, nil
}

// CountUsers returns the size of the users collection.
func (store *JSONStore) CountUsers(ctx context.Context) (int64, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return int64(len(store.Cache.Users)), nil
}

// CountDonorsByBloodGroup counts stored donors carrying the given blood group.
func (store *JSONStore) CountDonorsByBloodGroup(
	ctx context.Context,
	bloodGroup models.BloodGroup,
) (int64, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var count int64
	for i := range store.Cache.Users {
		if store.Cache.Users[i].Role == models.RoleDonor && store.Cache.Users[i].BloodGroup == bloodGroup {
			count++
		}
	}

	return count, nil
}

// SaveSession sets the current session user.
func (store *JSONStore) SaveSession(ctx context.Context, usr *models.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	sessionUser := *usr
	store.Cache.CurrentUser = &sessionUser

	return store.flush()
}

// GetSession returns the session user, or found == false when nobody is
// logged in. Pure read, no side effect.
func (store *JSONStore) GetSession(ctx context.Context) (*models.User, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.Cache.CurrentUser == nil {
		return nil, false, nil
	}
	sessionUser := *store.Cache.CurrentUser

	return &sessionUser, true, nil
}

// ClearSession drops the session pointer. User records are unaffected.
func (store *JSONStore) ClearSession(ctx context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.Cache.CurrentUser = nil

	return store.flush()
}

// InsertRequest appends the request to the requests collection.
func (store *JSONStore) InsertRequest(ctx context.Context, req *models.Request) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.Cache.Requests = append(store.Cache.Requests, *req)

	return store.flush()
}

// FindRequestByID scans the requests collection for a matching id.
func (store *JSONStore) FindRequestByID(ctx context.Context, id string) (*models.Request, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for i := range store.Cache.Requests {
		if store.Cache.Requests[i].ID == id {
			found := store.Cache.Requests[i]
			return &found, true, nil
		}
	}

	return nil, false, nil
}

// UpdateRequest replaces the stored request matched by id. Returns false
// when the id is unknown; the collection is left untouched in that case.
func (store *JSONStore) UpdateRequest(ctx context.Context, req *models.Request) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for i := range store.Cache.Requests {
		if store.Cache.Requests[i].ID == req.ID {
			store.Cache.Requests[i] = *req
			return true, store.flush()
		}
	}

	return false, nil
}

// ListRequests returns a copy of the requests collection in insertion order.
func (store *JSONStore) ListRequests(ctx context.Context) ([]models.Request, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result := make([]models.Request, len(store.Cache.Requests))
	copy(result, store.Cache.Requests)

	return result, nil
}

// CountRequests returns the size of the requests collection.
func (store *JSONStore) CountRequests(ctx context.Context) (int64, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return int64(len(store.Cache.Requests)), nil
}

// Ping always succeeds for the file-backed store.
func (store *JSONStore) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the dataset to disk one last time.
func (store *JSONStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.flush()
}
