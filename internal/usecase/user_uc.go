package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/phenrril/prostore/internal/domain"
)

type UserUC struct {
	Users    domain.UserRepo
	Carts    domain.CartRepo
	PageSize int
}

type SignUpInput struct {
	Name            string `json:"name" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=3"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=3"`
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (uc *UserUC) SignUp(ctx context.Context, in SignUpInput, sessionCartID string) (*domain.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, domain.NewValidationError("confirmPassword", "passwords do not match")
	}
	email := normalizeEmail(in.Email)
	if _, err := uc.Users.FindByEmail(ctx, email); err == nil {
		return nil, domain.NewValidationError("email", "Email already exists")
	} else if !isNotFound(err) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.New(), Name: strings.TrimSpace(in.Name), Email: email, PasswordHash: string(hash), Role: domain.RoleUser}
	if err := uc.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	uc.claimCart(ctx, u, sessionCartID)
	return u, nil
}

func (uc *UserUC) SignIn(ctx context.Context, in SignInInput, sessionCartID string) (*domain.User, error) {
	u, err := uc.Users.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrBadCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrBadCredentials
	}
	uc.claimCart(ctx, u, sessionCartID)
	return u, nil
}

// SignInExternal finds or creates the user behind an identity-provider login.
func (uc *UserUC) SignInExternal(ctx context.Context, email, name, sessionCartID string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "email is required")
	}
	u, err := uc.Users.FindByEmail(ctx, email)
	if isNotFound(err) {
		if strings.TrimSpace(name) == "" {
			name = "NO_NAME"
		}
		u = &domain.User{ID: uuid.New(), Email: email, Name: name, Role: domain.RoleUser}
		err = uc.Users.Save(ctx, u)
	}
	if err != nil {
		return nil, err
	}
	uc.claimCart(ctx, u, sessionCartID)
	return u, nil
}

func (uc *UserUC) claimCart(ctx context.Context, u *domain.User, sessionCartID string) {
	if uc.Carts == nil || sessionCartID == "" {
		return
	}
	if err := uc.Carts.BindToUser(ctx, sessionCartID, u.ID); err != nil && !isNotFound(err) {
		log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("bind session cart")
	}
}

func (uc *UserUC) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := uc.Users.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, domain.NotFound("user")
	}
	return u, err
}

func (uc *UserUC) current(ctx context.Context, id *domain.Identity) (*domain.User, error) {
	if id == nil {
		return nil, domain.ErrUnauthenticated
	}
	return uc.GetByID(ctx, id.UserID)
}

func (uc *UserUC) UpdateAddress(ctx context.Context, id *domain.Identity, addr domain.ShippingAddress) error {
	u, err := uc.current(ctx, id)
	if err != nil {
		return err
	}
	u.Address = &addr
	return uc.Users.Save(ctx, u)
}

func (uc *UserUC) UpdatePaymentMethod(ctx context.Context, id *domain.Identity, method string) error {
	m, ok := domain.ParsePaymentMethod(method)
	if !ok {
		return domain.NewValidationError("type", "invalid payment method")
	}
	u, err := uc.current(ctx, id)
	if err != nil {
		return err
	}
	u.PaymentMethod = m
	return uc.Users.Save(ctx, u)
}

func (uc *UserUC) UpdateProfile(ctx context.Context, id *domain.Identity, name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return domain.NewValidationError("name", "name must be at least 3 characters")
	}
	u, err := uc.current(ctx, id)
	if err != nil {
		return err
	}
	u.Name = name
	return uc.Users.Save(ctx, u)
}

type UserPage struct {
	Users      []domain.User `json:"data"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

func (uc *UserUC) List(ctx context.Context, page int) (*UserPage, error) {
	size := uc.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	list, total, err := uc.Users.List(ctx, page, size)
	if err != nil {
		return nil, err
	}
	return &UserPage{Users: list, Page: page, TotalPages: TotalPages(total, size)}, nil
}

func (uc *UserUC) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := uc.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.Users.Delete(ctx, id)
}

func (uc *UserUC) UpdateRole(ctx context.Context, id uuid.UUID, name string, role domain.Role) error {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.NewValidationError("role", "invalid role")
	}
	u, err := uc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n := strings.TrimSpace(name); n != "" {
		u.Name = n
	}
	u.Role = role
	return uc.Users.Save(ctx, u)
}
