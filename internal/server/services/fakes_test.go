package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/approvals"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/cloudstorages"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/sharekeys"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/userkeys"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- in-memory store shared by all fake repositories ---

type memStore struct {
	mu sync.Mutex

	users     map[string]*models.User
	csps      []*models.CloudStorageProvider
	shares    map[string]*models.Share
	shareKeys []*models.ShareKey
	approvals []*models.ApprovalRequest
	userKeys  []*models.EncryptedUserKeyData

	// lockErr is returned by every FOR UPDATE lookup when set.
	lockErr     error
	authWrites  int
	cacheClears int

	// afterAccountLookup runs once after the next shares ForAccounts call.
	afterAccountLookup func()
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}, shares: map[string]*models.Share{}}
}

func uniqueViolation() error {
	return fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505"})
}

func lockTimeout() error {
	return &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}

func cloneShare(s *models.Share) *models.Share {
	c := *s
	c.StorageUniqueIDs = slices.Clone(s.StorageUniqueIDs)
	return &c
}

func cloneCsp(c *models.CloudStorageProvider) *models.CloudStorageProvider {
	cc := *c
	return &cc
}

// --- users ---

type fakeUsers struct{ st *memStore }

func (f *fakeUsers) Get(_ context.Context, id string) (*models.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (f *fakeUsers) GetMany(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		u, err := f.Get(ctx, id)
		if err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) GetInOrganization(ctx context.Context, organizationID, id string) (*models.User, error) {
	u, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.OrganizationID != organizationID {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetInOrganizationForUpdate(ctx context.Context, organizationID, id string) (*models.User, error) {
	if f.st.lockErr != nil {
		return nil, fmt.Errorf("db error: %w", f.st.lockErr)
	}
	return f.GetInOrganization(ctx, organizationID, id)
}

func (f *fakeUsers) InitPublicKey(_ context.Context, id, publicKey string) (*models.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok || u.HasPublicKey() {
		return nil, common.ErrorNotFound
	}
	u.PublicKey = &publicKey
	return cloneUser(u), nil
}

func (f *fakeUsers) ClearPublicKey(_ context.Context, id string) (*models.User, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.PublicKey = nil
	return cloneUser(u), nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	delete(f.st.users, id)
	f.st.csps = slices.DeleteFunc(f.st.csps, func(c *models.CloudStorageProvider) bool { return c.UserID == id })
	f.st.shareKeys = slices.DeleteFunc(f.st.shareKeys, func(k *models.ShareKey) bool { return k.UserID == id })
	f.st.approvals = slices.DeleteFunc(f.st.approvals, func(a *models.ApprovalRequest) bool { return a.UserID == id })
	f.st.userKeys = slices.DeleteFunc(f.st.userKeys, func(k *models.EncryptedUserKeyData) bool { return k.UserID == id })
	return nil
}

// --- cloud storages ---

type fakeCsps struct{ st *memStore }

func (f *fakeCsps) Create(_ context.Context, csp *models.CloudStorageProvider) (*models.CloudStorageProvider, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, c := range f.st.csps {
		if c.UserID != csp.UserID {
			continue
		}
		if c.CspID == csp.CspID || (c.Type == csp.Type && c.UniqueID == csp.UniqueID) {
			return nil, uniqueViolation()
		}
	}
	c := cloneCsp(csp)
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	f.st.csps = append(f.st.csps, c)
	return cloneCsp(c), nil
}

func (f *fakeCsps) filter(keep func(*models.CloudStorageProvider) bool) []*models.CloudStorageProvider {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []*models.CloudStorageProvider
	for _, c := range f.st.csps {
		if keep(c) {
			out = append(out, cloneCsp(c))
		}
	}
	return out
}

func (f *fakeCsps) ForUser(_ context.Context, userID string) ([]*models.CloudStorageProvider, error) {
	return f.filter(func(c *models.CloudStorageProvider) bool { return c.UserID == userID }), nil
}

func (f *fakeCsps) GetByCspID(_ context.Context, userID, cspID string) (*models.CloudStorageProvider, error) {
	found := f.filter(func(c *models.CloudStorageProvider) bool { return c.UserID == userID && c.CspID == cspID })
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}
	return found[0], nil
}

func (f *fakeCsps) GetByCspIDForUpdate(ctx context.Context, userID, cspID string) (*models.CloudStorageProvider, error) {
	if f.st.lockErr != nil {
		return nil, fmt.Errorf("db error: %w", f.st.lockErr)
	}
	return f.GetByCspID(ctx, userID, cspID)
}

func (f *fakeCsps) UpdateAuthData(_ context.Context, id, authenticationData string) (*models.CloudStorageProvider, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, c := range f.st.csps {
		if c.ID == id {
			c.AuthenticationData = authenticationData
			f.st.authWrites++
			return cloneCsp(c), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCsps) DeleteByCspID(_ context.Context, userID, cspID string) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	before := len(f.st.csps)
	f.st.csps = slices.DeleteFunc(f.st.csps, func(c *models.CloudStorageProvider) bool {
		return c.UserID == userID && c.CspID == cspID
	})
	return int64(before - len(f.st.csps)), nil
}

func (f *fakeCsps) ByAccount(_ context.Context, account models.StorageAccount) ([]*models.CloudStorageProvider, error) {
	return f.filter(func(c *models.CloudStorageProvider) bool { return c.Account() == account }), nil
}

func (f *fakeCsps) ByAccounts(ctx context.Context, accounts []models.StorageAccount) (map[models.StorageAccount][]*models.CloudStorageProvider, error) {
	out := make(map[models.StorageAccount][]*models.CloudStorageProvider, len(accounts))
	for _, a := range accounts {
		out[a], _ = f.ByAccount(ctx, a)
	}
	return out, nil
}

func (f *fakeCsps) UsersWithAccounts(_ context.Context, userIDs []string, storageType models.StorageType, uniqueIDs []string) (map[string]bool, error) {
	found := f.filter(func(c *models.CloudStorageProvider) bool {
		return c.Type == storageType && slices.Contains(userIDs, c.UserID) && slices.Contains(uniqueIDs, c.UniqueID)
	})
	out := map[string]bool{}
	for _, c := range found {
		out[c.UserID] = true
	}
	return out, nil
}

func (f *fakeCsps) ClearAccountCache() {
	f.st.mu.Lock()
	f.st.cacheClears++
	f.st.mu.Unlock()
}

// --- shares ---

type fakeShares struct{ st *memStore }

func (f *fakeShares) Create(_ context.Context, share *models.Share) (*models.Share, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, s := range f.st.shares {
		if s.Ref() == share.Ref() {
			return nil, uniqueViolation()
		}
	}
	s := cloneShare(share)
	s.ID = uuid.NewString()
	s.CreatedAt, s.UpdatedAt = time.Now(), time.Now()
	f.st.shares[s.ID] = s
	return cloneShare(s), nil
}

func (f *fakeShares) Get(_ context.Context, id string) (*models.Share, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.shares[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneShare(s), nil
}

func (f *fakeShares) where(keep func(*models.Share) bool) []*models.Share {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []*models.Share
	for _, s := range f.st.shares {
		if keep(s) {
			out = append(out, cloneShare(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeShares) FindByRef(_ context.Context, ref models.ShareRef) (*models.Share, error) {
	found := f.where(func(s *models.Share) bool { return s.Ref() == ref })
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}
	return found[0], nil
}

func (f *fakeShares) FindByRefForUpdate(ctx context.Context, ref models.ShareRef) (*models.Share, error) {
	if f.st.lockErr != nil {
		return nil, fmt.Errorf("db error: %w", f.st.lockErr)
	}
	return f.FindByRef(ctx, ref)
}

func (f *fakeShares) GetForUpdate(ctx context.Context, id string) (*models.Share, error) {
	if f.st.lockErr != nil {
		return nil, fmt.Errorf("db error: %w", f.st.lockErr)
	}
	return f.Get(ctx, id)
}

func (f *fakeShares) ForOrganization(_ context.Context, organizationID string) ([]*models.Share, error) {
	return f.where(func(s *models.Share) bool { return s.OrganizationID == organizationID }), nil
}

func (f *fakeShares) ForAccounts(_ context.Context, accounts []models.StorageAccount) (map[models.StorageAccount][]*models.Share, error) {
	out := make(map[models.StorageAccount][]*models.Share, len(accounts))
	for _, a := range accounts {
		out[a] = f.where(func(s *models.Share) bool {
			return s.StorageType == a.Type && slices.Contains(s.StorageUniqueIDs, a.UniqueID)
		})
	}
	f.st.mu.Lock()
	hook := f.st.afterAccountLookup
	f.st.afterAccountLookup = nil
	f.st.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func applyPatch(s *models.Share, patch models.SharePatch) {
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.StorageUniqueIDs != nil {
		s.StorageUniqueIDs = slices.Clone(patch.StorageUniqueIDs)
	}
	if patch.PublicShareKey != nil {
		pk := *patch.PublicShareKey
		s.PublicShareKey = &pk
	}
	s.UpdatedAt = time.Now()
}

func (f *fakeShares) Update(_ context.Context, id string, patch models.SharePatch) (*models.Share, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.shares[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	applyPatch(s, patch)
	return cloneShare(s), nil
}

func (f *fakeShares) UpdateWhere(_ context.Context, ref models.ShareRef, patch models.SharePatch) ([]*models.Share, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []*models.Share
	for _, s := range f.st.shares {
		if s.Ref() == ref {
			applyPatch(s, patch)
			out = append(out, cloneShare(s))
		}
	}
	return out, nil
}

func (f *fakeShares) deleteLocked(id string) {
	delete(f.st.shares, id)
	f.st.shareKeys = slices.DeleteFunc(f.st.shareKeys, func(k *models.ShareKey) bool { return k.ShareID == id })
}

func (f *fakeShares) DeleteWhere(_ context.Context, ref models.ShareRef) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var n int64
	for id, s := range f.st.shares {
		if s.Ref() == ref {
			f.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (f *fakeShares) Delete(_ context.Context, id string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	f.deleteLocked(id)
	return nil
}

// --- share keys ---

type fakeShareKeys struct{ st *memStore }

func (f *fakeShareKeys) Create(_ context.Context, key *models.ShareKey) (*models.ShareKey, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, k := range f.st.shareKeys {
		if k.ShareID == key.ShareID && k.UserID == key.UserID {
			return nil, uniqueViolation()
		}
	}
	k := *key
	k.ID = uuid.NewString()
	f.st.shareKeys = append(f.st.shareKeys, &k)
	c := k
	return &c, nil
}

func (f *fakeShareKeys) GetByShareAndUser(_ context.Context, shareID, userID string) (*models.ShareKey, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, k := range f.st.shareKeys {
		if k.ShareID == shareID && k.UserID == userID {
			c := *k
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeShareKeys) UserIDsForShare(_ context.Context, shareID string) ([]string, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []string
	for _, k := range f.st.shareKeys {
		if k.ShareID == shareID {
			out = append(out, k.UserID)
		}
	}
	return out, nil
}

func (f *fakeShareKeys) ForUser(_ context.Context, userID string) ([]*models.ShareKey, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []*models.ShareKey
	for _, k := range f.st.shareKeys {
		if k.UserID == userID {
			c := *k
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeShareKeys) DeleteForUser(_ context.Context, userID string) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	before := len(f.st.shareKeys)
	f.st.shareKeys = slices.DeleteFunc(f.st.shareKeys, func(k *models.ShareKey) bool { return k.UserID == userID })
	return int64(before - len(f.st.shareKeys)), nil
}

// --- approval requests ---

type fakeApprovals struct{ st *memStore }

func (f *fakeApprovals) Upsert(_ context.Context, userID, deviceID, publicDeviceKey string) (*models.ApprovalRequest, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, a := range f.st.approvals {
		if a.UserID == userID && a.DeviceID == deviceID {
			a.PublicDeviceKey = publicDeviceKey
			c := *a
			return &c, nil
		}
	}
	a := &models.ApprovalRequest{ID: uuid.NewString(), UserID: userID, DeviceID: deviceID, PublicDeviceKey: publicDeviceKey}
	f.st.approvals = append(f.st.approvals, a)
	c := *a
	return &c, nil
}

func (f *fakeApprovals) ForUser(_ context.Context, userID string) ([]*models.ApprovalRequest, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []*models.ApprovalRequest
	for _, a := range f.st.approvals {
		if a.UserID == userID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeApprovals) remove(keep func(*models.ApprovalRequest) bool) int64 {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	before := len(f.st.approvals)
	f.st.approvals = slices.DeleteFunc(f.st.approvals, keep)
	return int64(before - len(f.st.approvals))
}

func (f *fakeApprovals) DeleteExact(_ context.Context, userID, deviceID, publicDeviceKey string) (int64, error) {
	return f.remove(func(a *models.ApprovalRequest) bool {
		return a.UserID == userID && a.DeviceID == deviceID && a.PublicDeviceKey == publicDeviceKey
	}), nil
}

func (f *fakeApprovals) DeleteForUser(_ context.Context, userID string) (int64, error) {
	return f.remove(func(a *models.ApprovalRequest) bool { return a.UserID == userID }), nil
}

// --- encrypted user keys ---

type fakeUserKeys struct{ st *memStore }

func (f *fakeUserKeys) Create(_ context.Context, data *models.EncryptedUserKeyData) (*models.EncryptedUserKeyData, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, k := range f.st.userKeys {
		if k.UserID == data.UserID && k.DeviceID == data.DeviceID {
			return nil, uniqueViolation()
		}
	}
	k := *data
	k.ID = uuid.NewString()
	f.st.userKeys = append(f.st.userKeys, &k)
	c := k
	return &c, nil
}

func (f *fakeUserKeys) ForUser(_ context.Context, userID string) ([]*models.EncryptedUserKeyData, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	var out []*models.EncryptedUserKeyData
	for _, k := range f.st.userKeys {
		if k.UserID == userID {
			c := *k
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeUserKeys) DeleteForUser(_ context.Context, userID string) (int64, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	before := len(f.st.userKeys)
	f.st.userKeys = slices.DeleteFunc(f.st.userKeys, func(k *models.EncryptedUserKeyData) bool { return k.UserID == userID })
	return int64(before - len(f.st.userKeys)), nil
}

// --- manager ---

type fakeRepoManager struct{ st *memStore }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return &fakeUsers{m.st} }
func (m *fakeRepoManager) CloudStorages(dbx.DBTX) cloudstorages.Repository { return &fakeCsps{m.st} }
func (m *fakeRepoManager) Shares(dbx.DBTX) shares.Repository               { return &fakeShares{m.st} }
func (m *fakeRepoManager) ShareKeys(dbx.DBTX) sharekeys.Repository         { return &fakeShareKeys{m.st} }
func (m *fakeRepoManager) ApprovalRequests(dbx.DBTX) approvals.Repository  { return &fakeApprovals{m.st} }
func (m *fakeRepoManager) UserKeys(dbx.DBTX) userkeys.Repository           { return &fakeUserKeys{m.st} }

// --- fixture ---

const testLockTimeout = 3 * time.Second

type fixture struct {
	db   *sql.DB
	mock sqlmock.Sqlmock
	st   *memStore
	rm   *fakeRepoManager
	cfg  *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st := newMemStore()
	return &fixture{
		db:   db,
		mock: mock,
		st:   st,
		rm:   &fakeRepoManager{st: st},
		cfg:  &config.Config{SecretKey: "k", LockTimeout: testLockTimeout},
	}
}

func (f *fixture) shares() *ShareService {
	return NewShareService(f.db, f.rm, f.cfg, logging.Nop{})
}

func (f *fixture) csps() *CloudStorageService {
	return NewCloudStorageService(f.db, f.rm, f.cfg, logging.Nop{})
}

func (f *fixture) keys() *KeyExchangeService {
	return NewKeyExchangeService(f.db, f.rm, logging.Nop{})
}

// expectLockedTx expects a transaction that sets the lock timeout first.
func (f *fixture) expectLockedTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectExec(regexp.QuoteMeta(`SELECT set_config('lock_timeout', $1, true)`)).
		WithArgs("3000ms").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func (f *fixture) addUser(org string, roles ...string) *models.User {
	u := &models.User{
		ID:             uuid.NewString(),
		OrganizationID: org,
		Email:          uuid.NewString()[:8] + "@example.com",
		Roles:          roles,
		IsEnabled:      true,
	}
	f.st.mu.Lock()
	f.st.users[u.ID] = u
	f.st.mu.Unlock()
	return cloneUser(u)
}

func (f *fixture) addCsp(u *models.User, t models.StorageType, uniqueID string) *models.CloudStorageProvider {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	c := &models.CloudStorageProvider{
		ID:                 uuid.NewString(),
		UserID:             u.ID,
		Type:               t,
		CspID:              "csp-" + uniqueID + "-" + u.ID[:8],
		UniqueID:           uniqueID,
		AuthenticationData: `{"token":"t"}`,
		DisplayName:        string(t),
	}
	f.st.csps = append(f.st.csps, c)
	return cloneCsp(c)
}

func (f *fixture) addShare(org string, t models.StorageType, uniqueID string, accounts ...string) *models.Share {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if accounts == nil {
		accounts = []string{}
	}
	s := &models.Share{
		ID:               uuid.NewString(),
		OrganizationID:   org,
		Name:             "share " + uniqueID,
		StorageType:      t,
		UniqueID:         uniqueID,
		StorageUniqueIDs: accounts,
	}
	f.st.shares[s.ID] = s
	return cloneShare(s)
}

func (f *fixture) share(id string) *models.Share {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.shares[id]
	if !ok {
		return nil
	}
	return cloneShare(s)
}

func (f *fixture) shareKeyHolders(shareID string) []string {
	ids, _ := (&fakeShareKeys{f.st}).UserIDsForShare(context.Background(), shareID)
	sort.Strings(ids)
	return ids
}

func viewIDs(views []models.UserView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	sort.Strings(out)
	return out
}

func sorted(in ...string) []string {
	out := slices.Clone(in)
	sort.Strings(out)
	return out
}
