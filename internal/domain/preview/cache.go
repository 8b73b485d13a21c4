package preview

import (
	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/platform/storage"
)

// DoctorInfoCache persists the doctor header block the doctor last filled
// in, so a fresh form starts with their letterhead. One slot, best effort.
type DoctorInfoCache struct {
	store *storage.Store
}

func NewDoctorInfoCache(store *storage.Store) *DoctorInfoCache {
	return &DoctorInfoCache{store: store}
}

func (c *DoctorInfoCache) Save(info *prescription.DoctorInfo) error {
	return c.store.Save(storage.SlotDoctorInfo, info)
}

// Load returns nil when the slot is absent or corrupt.
func (c *DoctorInfoCache) Load() (*prescription.DoctorInfo, error) {
	var info prescription.DoctorInfo
	ok, err := c.store.Load(storage.SlotDoctorInfo, &info)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &info, nil
}
