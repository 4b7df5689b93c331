package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campusquiz/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidIDToken     = errors.New("invalid Google ID token")
)

type AuthService struct {
	db             *gorm.DB
	jwtSecret      string
	tokenExpiry    time.Duration
	googleClientID string
	tokenInfoURL   string
	httpClient     *http.Client
}

func NewAuthService(db *gorm.DB, jwtSecret string, expiryHours int, googleClientID string) *AuthService {
	return &AuthService{
		db:             db,
		jwtSecret:      jwtSecret,
		tokenExpiry:    time.Duration(expiryHours) * time.Hour,
		googleClientID: googleClientID,
		tokenInfoURL:   googleTokenInfoURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates a password-backed account. New accounts are Students;
// role changes are an admin action.
func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         req.Name,
		Email:        email,
		Role:         models.RoleStudent,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(&user).Error; err != nil {
		log.Printf("Failed to register user %s: %v", email, err)
		return nil, err
	}

	log.Printf("New user registered: %s", email)
	return s.issueToken(&user)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		// Google-only account
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(&user)
}

type googleTokenInfo struct {
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleLogin verifies a Google ID token against the tokeninfo endpoint,
// upserts the user and mints a local JWT. New Google users default to the
// Student role.
func (s *AuthService) GoogleLogin(idToken string) (*AuthResponse, error) {
	info, err := s.verifyIDToken(idToken)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(info.Email)
	var user models.User
	err = s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		name := info.Name
		if name == "" {
			name = "New User"
		}
		user = models.User{Name: name, Email: email, Role: models.RoleStudent}
		if err := s.db.Create(&user).Error; err != nil {
			log.Printf("Failed to save new Google user %s: %v", email, err)
			return nil, err
		}
		log.Printf("New user registered via Google: %s", email)
	} else if err != nil {
		return nil, err
	}

	return s.issueToken(&user)
}

func (s *AuthService) verifyIDToken(idToken string) (*googleTokenInfo, error) {
	resp, err := s.httpClient.Get(s.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken))
	if err != nil {
		log.Printf("Error verifying Google ID token: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidIDToken
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, ErrInvalidIDToken
	}
	if info.Aud != s.googleClientID {
		log.Printf("Google ID token audience mismatch")
		return nil, ErrInvalidIDToken
	}
	if info.EmailVerified != "true" || info.Email == "" {
		return nil, ErrInvalidIDToken
	}
	return &info, nil
}

// GetProfile returns the user for a verified email.
func (s *AuthService) GetProfile(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) issueToken(user *models.User) (*AuthResponse, error) {
	token, err := GenerateToken(user.Email, user.Role, s.jwtSecret, s.tokenExpiry)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{AccessToken: token, TokenType: "Bearer"}, nil
}

// GenerateToken mints an HS256 JWT with the email as subject and the role
// as a claim.
func GenerateToken(email string, role models.Role, secret string, expiry time.Duration) (string, error) {
	if email == "" || role == "" {
		return "", fmt.Errorf("email and role must not be blank for token generation")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  email,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(expiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a JWT and returns the (email, role) pair it carries.
func ParseToken(tokenString, secret string) (email string, role models.Role, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	email, _ = claims["sub"].(string)
	roleStr, _ := claims["role"].(string)
	role = models.Role(roleStr)
	if email == "" || !role.Valid() {
		return "", "", errors.New("invalid token claims")
	}
	return email, role, nil
}
