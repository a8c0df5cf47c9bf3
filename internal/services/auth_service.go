package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

var errBadCredentials = errors.New("invalid email or password")

type AuthService struct {
	Users     UserStore
	Secret    []byte
	Clock     Clock
	Timeout   time.Duration
	RequestID string
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register creates a user account with the "user" role.
func (s AuthService) Register(ctx context.Context, in RegisterInput) (models.PublicUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return models.PublicUser{}, domain.ValidationError{Field: "name", Msg: "required"}
	}
	if !strings.Contains(in.Email, "@") {
		return models.PublicUser{}, domain.ValidationError{Field: "email", Msg: "invalid email"}
	}
	if len(in.Password) < 6 {
		return models.PublicUser{}, domain.ValidationError{Field: "password", Msg: "at least 6 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.PublicUser{}, domain.InternalError{Msg: "hash password", Err: err}
	}

	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	u := models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         models.ActorUser,
	}
	if err := s.Users.Create(cctx, &u); err != nil {
		return models.PublicUser{}, storeError(err)
	}
	utils.LogEvent(s.RequestID, "auth", "register", fmt.Sprintf("user=%d", u.ID))
	return u.ToPublic(), nil
}

// Login checks the password and issues an HS256 token carrying user_id and role.
func (s AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	u, err := s.Users.GetByEmail(cctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return AuthResult{}, domain.AccessDeniedError{Msg: errBadCredentials.Error()}
		}
		return AuthResult{}, storeError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, domain.AccessDeniedError{Msg: errBadCredentials.Error()}
	}

	token, err := s.IssueToken(u.ID, u.Role)
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "sign token", Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "login", fmt.Sprintf("user=%d", u.ID))
	return AuthResult{Token: token, User: u.ToPublic()}, nil
}

func (s AuthService) IssueToken(userID int64, role models.Actor) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     s.Clock.now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.Secret)
}

// ParseToken verifies a token and returns the caller it was issued for.
func ParseToken(secret []byte, raw string) (Caller, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Caller{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Caller{}, errors.New("invalid token claims")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return Caller{}, errors.New("token has no user_id")
	}
	role, err := models.ParseActor(fmt.Sprint(claims["role"]))
	if err != nil {
		role = models.ActorUser
	}
	return Caller{UserID: int64(id), Role: role}, nil
}

// Profile returns the caller's account, including the loyalty point balance.
func (s AuthService) Profile(ctx context.Context, userID int64) (models.PublicUser, error) {
	cctx, cancel := storeCtx(ctx, s.Timeout)
	defer cancel()

	u, err := s.Users.GetByID(cctx, userID)
	if err != nil {
		return models.PublicUser{}, storeError(err)
	}
	return u.ToPublic(), nil
}
