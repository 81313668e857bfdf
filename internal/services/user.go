package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/newomen/newme-backend/internal/data/repos"
	types "github.com/newomen/newme-backend/internal/domain"
	"github.com/newomen/newme-backend/internal/pkg/dbctx"
	"github.com/newomen/newme-backend/internal/platform/apierr"
	"github.com/newomen/newme-backend/internal/platform/ctxutil"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
	Register(ctx context.Context, email, displayName string) (*types.User, error)
	UpdateDisplayName(ctx context.Context, displayName string) (*types.User, error)
	UpdateAvatarColor(ctx context.Context, avatarColor string) (*types.User, error)
	UploadAvatarImage(ctx context.Context, raw []byte) (*types.User, error)
	RegenerateAvatar(ctx context.Context) (*types.User, error)
	RecordLogin(ctx context.Context) (*RewardResult, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	gamification  GamificationService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, avatarService AvatarService, gamification GamificationService) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		avatarService: avatarService,
		gamification:  gamification,
	}
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
	}
	rows, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apierr.Newf(http.StatusNotFound, apierr.CodeNotFound, "user %s not found", rd.UserID)
	}
	return rows[0], nil
}

func (us *userService) Register(ctx context.Context, email, displayName string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid email"))
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	row := &types.User{ID: uuid.New(), Email: email, DisplayName: displayName}

	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := us.avatarService.CreateUserAvatar(ctx, tx, row); err != nil {
			us.log.Warn("avatar generation failed; continuing without", "error", err)
		}
		if _, err := us.userRepo.Create(dbc, []*types.User{row}); err != nil {
			return err
		}
		profile := &types.UserProfile{ID: uuid.New(), UserID: row.ID}
		return tx.WithContext(ctx).Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (us *userService) UpdateDisplayName(ctx context.Context, displayName string) (*types.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("display name required"))
	}
	return us.updateMe(ctx, func(u *types.User) (map[string]interface{}, error) {
		u.DisplayName = displayName
		if err := us.avatarService.CreateUserAvatar(ctx, nil, u); err != nil {
			us.log.Warn("avatar regeneration failed; keeping old avatar", "error", err)
		}
		return map[string]interface{}{
			"display_name": u.DisplayName,
			"avatar_url":   u.AvatarURL,
			"avatar_color": u.AvatarColor,
		}, nil
	})
}

func (us *userService) UpdateAvatarColor(ctx context.Context, avatarColor string) (*types.User, error) {
	if normalizeHex(avatarColor) == "" {
		return nil, apierr.Newf(http.StatusBadRequest, apierr.CodeBadRequest, "invalid avatar color %q", avatarColor)
	}
	return us.updateMe(ctx, func(u *types.User) (map[string]interface{}, error) {
		u.AvatarColor = normalizeHex(avatarColor)
		if err := us.avatarService.CreateUserAvatar(ctx, nil, u); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"avatar_color": u.AvatarColor,
			"avatar_url":   u.AvatarURL,
		}, nil
	})
}

func (us *userService) UploadAvatarImage(ctx context.Context, raw []byte) (*types.User, error) {
	if len(raw) == 0 {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("empty image"))
	}
	return us.updateMe(ctx, func(u *types.User) (map[string]interface{}, error) {
		if err := us.avatarService.CreateUserAvatarFromImage(ctx, nil, u, raw); err != nil {
			return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, err)
		}
		return map[string]interface{}{"avatar_url": u.AvatarURL}, nil
	})
}

// RegenerateAvatar re-renders the initials avatar from the current display
// name and color, replacing any uploaded image.
func (us *userService) RegenerateAvatar(ctx context.Context) (*types.User, error) {
	return us.updateMe(ctx, func(u *types.User) (map[string]interface{}, error) {
		if err := us.avatarService.CreateUserAvatar(ctx, nil, u); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"avatar_url":   u.AvatarURL,
			"avatar_color": u.AvatarColor,
		}, nil
	})
}

func (us *userService) RecordLogin(ctx context.Context) (*RewardResult, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("no authenticated user"))
	}
	return us.gamification.RecordDailyLogin(ctx, rd.UserID)
}

func (us *userService) updateMe(ctx context.Context, mutate func(u *types.User) (map[string]interface{}, error)) (*types.User, error) {
	var out *types.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		me, err := us.GetMe(dbc)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.New(http.StatusNotFound, apierr.CodeNotFound, err)
		}
		if err != nil {
			return err
		}

		updates, err := mutate(me)
		if err != nil {
			return err
		}
		if err := us.userRepo.UpdateFields(dbc, me.ID, updates); err != nil {
			return err
		}
		out = me
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
