package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is deliberately thin: a username is claimed at registration and
// carried in a signed token. There are no accounts to look up; the token
// itself is the identity, and the hub enforces per-board uniqueness at join.

func (s *Service) Register(username string) (string, error) {
	if err := ValidateUsername(username); err != nil {
		return "", err
	}
	return s.CreateJWT(username)
}

func (s *Service) CreateJWT(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

func (s *Service) VerifyJWT(tokenString string) (string, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", time.Time{}, err
	}

	if !token.Valid {
		return "", time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, errors.New("invalid token claims")
	}

	username, ok := claims["username"].(string)
	if !ok {
		return "", time.Time{}, errors.New("missing username claim")
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return "", time.Time{}, errors.New("missing exp claim")
	}
	expiry := time.Unix(int64(expFloat), 0)

	return username, expiry, nil
}

func (s *Service) AuthenticateToken(token string) (string, error) {
	if len(token) == 0 {
		return "", errors.New("token not provided")
	}

	username, _, err := s.VerifyJWT(token)
	if err != nil {
		return "", err
	}

	return username, nil
}
