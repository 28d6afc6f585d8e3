package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	tokenIssuer = "fertiplan"
	tokenTTL    = 24 * time.Hour
)

// signJWT issues an HS256 token whose subject is the user id.
func signJWT(secret string, userID primitive.ObjectID, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// parseJWT validates tokenStr and returns its subject as an ObjectID.
func parseJWT(secret, tokenStr string) (primitive.ObjectID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return primitive.NilObjectID, errors.New("no subject")
	}
	return primitive.ObjectIDFromHex(claims.Subject)
}
