// Package services holds the tip publication and search use cases.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/tipbox/backend/internal/apperrors"
	"github.com/anonto42/tipbox/backend/internal/models"
	"github.com/anonto42/tipbox/backend/internal/repositories"
	"gorm.io/gorm"
)

// Access is the kind of storage access being checked.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
)

func (a Access) String() string {
	if a == AccessWrite {
		return "write"
	}
	return "read"
}

// Guard decides whether an actor may use a storage or a group scope.
// Reads and writes share one rule: a group storage is open to the group's
// members, a personal storage to its owner.
type Guard struct {
	storages repositories.StorageRepository
	groups   repositories.GroupRepository
}

// NewGuard builds a guard on store. Pass the transaction's store when
// called inside one.
func NewGuard(store *repositories.Store) *Guard {
	return &Guard{storages: store.Storages, groups: store.Groups}
}

// AuthorizeStorage returns the storage when actorID may access it.
func (g *Guard) AuthorizeStorage(ctx context.Context, actorID, storageID uint, access Access) (*models.Storage, error) {
	storage, err := g.storages.GetStorageByID(ctx, storageID)
	if err != nil {
		return nil, lookupErr(err, "storage", storageID)
	}

	if storage.IsGroupOwned() {
		member, err := g.groups.IsMember(ctx, *storage.GroupID, actorID)
		if err != nil {
			return nil, fmt.Errorf("check group membership: %w", err)
		}
		if !member {
			return nil, apperrors.AccessDenied("user %d may not %s group storage %d", actorID, access, storageID)
		}
		return storage, nil
	}

	if storage.UserID != actorID {
		return nil, apperrors.AccessDenied("user %d may not %s storage %d", actorID, access, storageID)
	}
	return storage, nil
}

// AuthorizeGroup checks that actorID is a member of groupID.
func (g *Guard) AuthorizeGroup(ctx context.Context, actorID, groupID uint) error {
	if _, err := g.groups.GetGroupByID(ctx, groupID); err != nil {
		return lookupErr(err, "group", groupID)
	}
	member, err := g.groups.IsMember(ctx, groupID, actorID)
	if err != nil {
		return fmt.Errorf("check group membership: %w", err)
	}
	if !member {
		return apperrors.AccessDenied("user %d is not a member of group %d", actorID, groupID)
	}
	return nil
}

// lookupErr maps a missing row to NotFound and wraps anything else.
func lookupErr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("%s %d not found", what, id)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}
