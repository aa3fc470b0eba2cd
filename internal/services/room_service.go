package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentease/internal/fsm"
	"rentease/internal/models"
)

// BlobStorage keeps room images and hands back their public URLs.
type BlobStorage interface {
	Upload(ctx context.Context, data []byte, name, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

type RoomStore interface {
	RoomStatusStore
	Create(ctx context.Context, room models.Room) (models.Room, error)
	List(ctx context.Context, status string) ([]models.Room, error)
	ListByOwner(ctx context.Context, ownerID int, status string) ([]models.Room, error)
	Update(ctx context.Context, room models.Room) (models.Room, error)
	ReplaceImages(ctx context.Context, roomID int, paths []string) error
	Delete(ctx context.Context, id int) error
	Stats(ctx context.Context, ownerID int) (models.RoomStats, error)
}

type RoomService struct {
	Tx      TxRunner
	Rooms   RoomStore
	Storage BlobStorage
	Logger  Logger
}

func validateRoom(room models.Room) error {
	if strings.TrimSpace(room.UnitName) == "" {
		return fmt.Errorf("%w: unitName is required", models.ErrValidation)
	}
	if feeAmount(room.RentalFee) <= 0 {
		return fmt.Errorf("%w: rentalFee must be at least 1", models.ErrValidation)
	}
	if room.NumberOfRooms < 0 {
		return fmt.Errorf("%w: numberOfRooms must not be negative", models.ErrValidation)
	}
	return nil
}

func (s *RoomService) upload(ctx context.Context, files []models.Upload) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if s.Storage == nil {
			return nil, fmt.Errorf("%w: image storage is not configured", models.ErrExternalService)
		}
		url, err := s.Storage.Upload(ctx, f.Data, f.Name, f.ContentType)
		if err != nil {
			s.discard(ctx, paths)
			return nil, fmt.Errorf("%w: upload %s: %v", models.ErrExternalService, f.Name, err)
		}
		paths = append(paths, url)
	}
	return paths, nil
}

// discard removes blobs that are no longer referenced. Failures are logged.
func (s *RoomService) discard(ctx context.Context, paths []string) {
	if s.Storage == nil {
		return
	}
	for _, p := range paths {
		if err := s.Storage.Delete(ctx, p); err != nil {
			loggerOrNop(s.Logger).Errorf("delete image %s: %v", p, err)
		}
	}
}

// Create lists a new room for owner. Rooms always start available.
func (s *RoomService) Create(ctx context.Context, room models.Room, images []models.Upload, owner models.Principal) (models.Room, error) {
	if owner.Kind != models.PrincipalOwner {
		return models.Room{}, fmt.Errorf("%w: only owners list rooms", models.ErrForbidden)
	}
	if err := validateRoom(room); err != nil {
		return models.Room{}, err
	}
	paths, err := s.upload(ctx, images)
	if err != nil {
		return models.Room{}, err
	}
	room.ID = 0
	room.OwnerID = owner.ID
	room.Status = models.RoomStatusAvailable
	room.ImagePaths = append(room.ImagePaths, paths...)

	var created models.Room
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.Rooms.Create(ctx, room)
		return err
	})
	if err != nil {
		s.discard(ctx, paths)
		return models.Room{}, err
	}
	return created, nil
}

func (s *RoomService) GetByID(ctx context.Context, id int) (models.Room, error) {
	return s.Rooms.GetByID(ctx, id)
}

func (s *RoomService) List(ctx context.Context, status string) ([]models.Room, error) {
	if status != "" && !fsm.ValidRoomStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q, want one of %s",
			models.ErrValidation, status, strings.Join(fsm.RoomStatuses(), ", "))
	}
	return s.Rooms.List(ctx, status)
}

func (s *RoomService) ListByOwner(ctx context.Context, ownerID int) ([]models.Room, error) {
	return s.Rooms.ListByOwner(ctx, ownerID, "")
}

func (s *RoomService) ListUnavailableByOwner(ctx context.Context, ownerID int) ([]models.Room, error) {
	return s.Rooms.ListByOwner(ctx, ownerID, models.RoomStatusUnavailable)
}

func (s *RoomService) owned(ctx context.Context, id int, actor models.Principal) (models.Room, error) {
	room, err := s.Rooms.GetByID(ctx, id)
	if err != nil {
		return models.Room{}, err
	}
	if !actor.IsOwner(room.OwnerID) {
		return models.Room{}, fmt.Errorf("%w: room %d belongs to another owner", models.ErrForbidden, id)
	}
	return room, nil
}

// Update rewrites a room's descriptive fields. When images are supplied they
// replace the stored ones.
func (s *RoomService) Update(ctx context.Context, id int, patch models.Room, images []models.Upload, actor models.Principal) (models.Room, error) {
	if err := validateRoom(patch); err != nil {
		return models.Room{}, err
	}
	current, err := s.owned(ctx, id, actor)
	if err != nil {
		return models.Room{}, err
	}
	paths, err := s.upload(ctx, images)
	if err != nil {
		return models.Room{}, err
	}

	patch.ID = id
	patch.OwnerID = current.OwnerID
	patch.Status = current.Status
	patch.CreatedAt = current.CreatedAt
	patch.ImagePaths = current.ImagePaths

	var updated models.Room
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.Rooms.Update(ctx, patch)
		if err != nil {
			return err
		}
		if len(paths) > 0 {
			if err := s.Rooms.ReplaceImages(ctx, id, paths); err != nil {
				return err
			}
			updated.ImagePaths = paths
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, paths)
		return models.Room{}, err
	}
	if len(paths) > 0 {
		s.discard(ctx, current.ImagePaths)
	}
	return updated, nil
}

// Delete removes a room and its images. Rooms with bookings or payments
// cannot be deleted.
func (s *RoomService) Delete(ctx context.Context, id int, actor models.Principal) error {
	room, err := s.owned(ctx, id, actor)
	if err != nil {
		return err
	}
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		return s.Rooms.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.discard(ctx, room.ImagePaths)
	return nil
}

// UpdateStatus applies an owner's explicit status change through the status
// machine.
func (s *RoomService) UpdateStatus(ctx context.Context, id int, status string, actor models.Principal) (models.Room, error) {
	if !fsm.ValidRoomStatus(status) {
		return models.Room{}, fmt.Errorf("%w: unknown status %q, want one of %s",
			models.ErrValidation, status, strings.Join(fsm.RoomStatuses(), ", "))
	}
	var out models.Room
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		room, err := s.owned(ctx, id, actor)
		if err != nil {
			return err
		}
		err = fsm.Apply(ctx, s.Rooms, id, room.Status, status)
		if errors.Is(err, fsm.ErrStaleStatus) {
			return fmt.Errorf("%w: room %d changed status concurrently", models.ErrConflict, id)
		}
		if err != nil {
			return err
		}
		room.Status = status
		out = room
		return nil
	})
	if err != nil {
		return models.Room{}, err
	}
	return out, nil
}

// Stats is visible to the owner only.
func (s *RoomService) Stats(ctx context.Context, ownerID int, actor models.Principal) (models.RoomStats, error) {
	if !actor.IsOwner(ownerID) {
		return models.RoomStats{}, fmt.Errorf("%w: stats of another owner", models.ErrForbidden)
	}
	return s.Rooms.Stats(ctx, ownerID)
}
