package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

// refreshtokenの有効期限
const refreshTokenTTL = 30 * 24 * time.Hour

const bcryptCost = 12

type AuthUsecase struct {
	cfg      config.Config
	userRepo repo.UserRepository
	rtRepo   repo.RefreshTokenRepository
}

// DI
func NewAuthUsecase(cfg config.Config, userRepo repo.UserRepository, rtRepo repo.RefreshTokenRepository) *AuthUsecase {
	return &AuthUsecase{cfg: cfg, userRepo: userRepo, rtRepo: rtRepo}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token TokenPair    `json:"token"`
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     string(u.Role),
		IsActive: u.IsActive,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return UserResponse{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < 8 {
		return UserResponse{}, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}
	if strings.TrimSpace(in.Name) == "" {
		return UserResponse{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return UserResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	role := model.RoleUser
	if u.cfg.IsAdminEmail(email) {
		role = model.RoleAdmin
	}

	user := model.User{
		Email:        email,
		PasswordHash: string(pwHash),
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		TokenVersion: 0,
		IsActive:     true,
	}
	if err := u.userRepo.Create(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return UserResponse{}, NewHTTPError(http.StatusConflict, "email already registered")
		}
		return UserResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toUserResponse(user), nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return LoginResponse{}, NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginResponse{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		return LoginResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return LoginResponse{}, NewHTTPError(http.StatusForbidden, "account is deactivated")
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginResponse{}, NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	//last_login更新
	now := time.Now()
	user.LastLoginAt = &now
	_ = u.userRepo.Update(ctx, &user)

	pair, err := u.issueTokenPair(ctx, user)
	if err != nil {
		return LoginResponse{}, err
	}

	return LoginResponse{User: toUserResponse(user), Token: pair}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserResponse, error) {
	if userID <= 0 {
		return UserResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return UserResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return UserResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !user.IsActive {
		return UserResponse{}, NewHTTPError(http.StatusForbidden, "account is deactivated")
	}
	return toUserResponse(user), nil
}

// Refresh は旧トークンを失効して新しいペアを発行する（ローテーション）。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string) (TokenPair, error) {
	if refreshTokenPlain == "" {
		return TokenPair{}, NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	rt, err := u.rtRepo.FindByHash(ctx, hashToken(refreshTokenPlain))
	if errors.Is(err, repo.ErrNotFound) {
		return TokenPair{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if rt.RevokedAt != nil || rt.ExpiresAt.Before(time.Now()) {
		return TokenPair{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	user, err := u.userRepo.FindByID(ctx, rt.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return TokenPair{}, NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !user.IsActive {
		return TokenPair{}, NewHTTPError(http.StatusForbidden, "account is deactivated")
	}

	if err := u.rtRepo.Revoke(ctx, rt.ID); err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.issueTokenPair(ctx, user)
}

// Logout は全デバイスのトークンを失効させる。
func (u *AuthUsecase) Logout(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := u.rtRepo.RevokeAllForUser(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	// token_versionを進めて発行済みaccess tokenも無効化
	if err := u.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AuthUsecase) issueTokenPair(ctx context.Context, user model.User) (TokenPair, error) {
	access, err := u.issueAccessToken(user)
	if err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	refreshPlain, refreshHash, err := newRandomTokenAndHash()
	if err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	rt := model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := u.rtRepo.Create(ctx, &rt); err != nil {
		return TokenPair{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refreshPlain,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

// HS256。claimsはsub/role/tv/iat/exp。
func (u *AuthUsecase) issueAccessToken(user model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.cfg.JWTSecret))
}

// 生値はクライアントに返し、DBにはsha256だけ置く
func newRandomTokenAndHash() (plain string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plain = base64.RawURLEncoding.EncodeToString(buf)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
