package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sitesync/sitesync-server/internal/models"
	"github.com/sitesync/sitesync-server/pkg/crypto"
)

// MemoryStore implements Store in process memory. It backs tests and
// standalone mode the way the original mock store backed development;
// production deployments use PostgresStore. All methods are safe for
// concurrent use, and CompleteLogEntry keeps the same compare-and-swap
// semantics as the Postgres implementation.
type MemoryStore struct {
	mu sync.RWMutex

	users     map[uuid.UUID]*models.User
	orgs      map[uuid.UUID]*models.Organization
	members   map[uuid.UUID]*models.OrganizationMember
	sites     map[uuid.UUID]*models.Site
	entries   map[uuid.UUID]*models.LogEntry
	apiKeys   map[uuid.UUID]*models.APIKey
	auditLogs []*models.AuditLog
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]*models.User),
		orgs:    make(map[uuid.UUID]*models.Organization),
		members: make(map[uuid.UUID]*models.OrganizationMember),
		sites:   make(map[uuid.UUID]*models.Site),
		entries: make(map[uuid.UUID]*models.LogEntry),
		apiKeys: make(map[uuid.UUID]*models.APIKey),
	}
}

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }

// BeginTx returns the store itself; memory operations are atomic under
// the store mutex and need no transaction scope.
func (s *MemoryStore) BeginTx(ctx context.Context) (Store, error) { return s, nil }

// Commit is a no-op
func (s *MemoryStore) Commit() error { return nil }

// Rollback is a no-op
func (s *MemoryStore) Rollback() error { return nil }

// ========== User Methods ==========

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrDuplicateKey
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if pwd, ok := user.Settings["password"].(string); ok && pwd != "" {
		hash, err := crypto.HashPassword(pwd)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		delete(user.Settings, "password")
	}

	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ========== Organization Methods ==========

func (s *MemoryStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	if org.SubscriptionStatus == "" {
		org.SubscriptionStatus = models.SubscriptionTrialing
	}

	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *MemoryStore) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (s *MemoryStore) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[org.ID]; !ok {
		return ErrNotFound
	}
	org.UpdatedAt = time.Now()
	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[id]; !ok {
		return ErrNotFound
	}
	delete(s.orgs, id)
	return nil
}

func (s *MemoryStore) ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orgs []*models.Organization
	for _, member := range s.members {
		if member.UserID != userID {
			continue
		}
		if org, ok := s.orgs[member.OrganizationID]; ok {
			cp := *org
			orgs = append(orgs, &cp)
		}
	}

	sort.Slice(orgs, func(i, j int) bool {
		return orgs[i].CreatedAt.Before(orgs[j].CreatedAt)
	})
	return orgs, nil
}

// ========== Membership Methods ==========

func (s *MemoryStore) AddMember(ctx context.Context, member *models.OrganizationMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if existing.OrganizationID == member.OrganizationID && existing.UserID == member.UserID {
			return ErrDuplicateKey
		}
	}

	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now()
	}

	cp := *member
	s.members[member.ID] = &cp
	return nil
}

func (s *MemoryStore) GetMember(ctx context.Context, orgID, userID uuid.UUID) (*models.OrganizationMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, member := range s.members {
		if member.OrganizationID == orgID && member.UserID == userID {
			cp := *member
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateMember(ctx context.Context, member *models.OrganizationMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.members {
		if existing.OrganizationID == member.OrganizationID && existing.UserID == member.UserID {
			cp := *member
			cp.ID = id
			s.members[id] = &cp
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, member := range s.members {
		if member.OrganizationID == orgID && member.UserID == userID {
			delete(s.members, id)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.OrganizationMember, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*models.OrganizationMember
	for _, member := range s.members {
		if member.OrganizationID == orgID {
			cp := *member
			members = append(members, &cp)
		}
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	total := int64(len(members))
	members = paginate(members, limit, offset)
	return members, total, nil
}

func (s *MemoryStore) CountMembers(ctx context.Context, orgID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, member := range s.members {
		if member.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}

// ========== Site Methods ==========

func (s *MemoryStore) CreateSite(ctx context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// QR tokens are unique within the organization scope.
	for _, existing := range s.sites {
		if existing.OrganizationID == site.OrganizationID && existing.QRCode == site.QRCode {
			return ErrDuplicateKey
		}
	}

	if site.ID == uuid.Nil {
		site.ID = uuid.New()
	}
	now := time.Now()
	site.CreatedAt = now
	site.UpdatedAt = now

	cp := *site
	s.sites[site.ID] = &cp
	return nil
}

func (s *MemoryStore) GetSite(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, ok := s.sites[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *site
	return &cp, nil
}

func (s *MemoryStore) FindSiteByQRCode(ctx context.Context, orgID uuid.UUID, qrCode string) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, site := range s.sites {
		if site.OrganizationID == orgID && site.QRCode == qrCode {
			cp := *site
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateSite(ctx context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sites[site.ID]
	if !ok {
		return ErrNotFound
	}
	site.UpdatedAt = time.Now()
	site.QRCode = existing.QRCode
	cp := *site
	s.sites[site.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteSite(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sites[id]; !ok {
		return ErrNotFound
	}
	delete(s.sites, id)
	return nil
}

func (s *MemoryStore) ListSites(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Site, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sites []*models.Site
	for _, site := range s.sites {
		if site.OrganizationID == orgID {
			cp := *site
			sites = append(sites, &cp)
		}
	}

	sort.Slice(sites, func(i, j int) bool {
		return sites[i].CreatedAt.After(sites[j].CreatedAt)
	})

	total := int64(len(sites))
	sites = paginate(sites, limit, offset)
	return sites, total, nil
}

func (s *MemoryStore) CountSites(ctx context.Context, orgID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, site := range s.sites {
		if site.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}

// ========== Log Entry Methods ==========

func (s *MemoryStore) CreateLogEntry(ctx context.Context, entry *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.CheckInTime.IsZero() {
		entry.CheckInTime = now.UTC().Truncate(time.Second)
	}

	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *MemoryStore) GetLogEntry(ctx context.Context, id uuid.UUID) (*models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

// CompleteLogEntry mirrors the Postgres compare-and-swap: the stored
// entry must still be active, otherwise the caller lost the race.
func (s *MemoryStore) CompleteLogEntry(ctx context.Context, entry *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[entry.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.CheckOutTime != nil {
		return ErrConflict
	}

	entry.UpdatedAt = time.Now()
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteLogEntry(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) ListLogEntries(ctx context.Context, orgID uuid.UUID, filters EntryFilters, limit, offset int) ([]*models.LogEntry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*models.LogEntry
	for _, entry := range s.entries {
		if entry.OrganizationID != orgID {
			continue
		}
		if filters.SiteID != nil && entry.SiteID != *filters.SiteID {
			continue
		}
		if filters.UserID != nil && entry.UserID != *filters.UserID {
			continue
		}
		if filters.StartTime != nil && entry.CheckInTime.Before(*filters.StartTime) {
			continue
		}
		if filters.EndTime != nil && !entry.CheckInTime.Before(*filters.EndTime) {
			continue
		}
		cp := *entry
		entries = append(entries, &cp)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CheckInTime.After(entries[j].CheckInTime)
	})

	total := int64(len(entries))
	if limit > 0 {
		entries = paginate(entries, limit, offset)
	}
	return entries, total, nil
}

// ========== API Key Methods ==========

func (s *MemoryStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}

	cp := *key
	s.apiKeys[key.ID] = &cp
	return nil
}

func (s *MemoryStore) GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.apiKeys {
		if key.KeyHash == keyHash && key.IsActive {
			cp := *key
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListAPIKeys(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []*models.APIKey
	for _, key := range s.apiKeys {
		if key.OrganizationID == orgID {
			cp := *key
			keys = append(keys, &cp)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (s *MemoryStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.apiKeys[id]
	if !ok {
		return ErrNotFound
	}
	key.IsActive = false
	return nil
}

// ========== Audit Log Methods ==========

func (s *MemoryStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	cp := *entry
	s.auditLogs = append(s.auditLogs, &cp)
	return nil
}

func (s *MemoryStore) ListAuditLogs(ctx context.Context, orgID uuid.UUID, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var logs []*models.AuditLog
	for _, entry := range s.auditLogs {
		if entry.OrganizationID != orgID {
			continue
		}
		if filters.UserID != nil && (entry.UserID == nil || *entry.UserID != *filters.UserID) {
			continue
		}
		if filters.Action != nil && entry.Action != *filters.Action {
			continue
		}
		if filters.ResourceType != nil && entry.ResourceType != *filters.ResourceType {
			continue
		}
		if filters.StartTime != nil && entry.CreatedAt.Before(*filters.StartTime) {
			continue
		}
		if filters.EndTime != nil && !entry.CreatedAt.Before(*filters.EndTime) {
			continue
		}
		cp := *entry
		logs = append(logs, &cp)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})

	total := int64(len(logs))
	logs = paginate(logs, limit, offset)
	return logs, total, nil
}

// paginate applies limit/offset to a slice
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
