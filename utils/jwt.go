package utils

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Development fallback only. Production deployments must set
		// JWT_SECRET; see .env.example.
		log.Printf("Warning: JWT_SECRET not found in environment, using default secret")
		secret = "ReservationDevSecret2024"
	}
	JWTSecret = []byte(secret)
}

// CustomClaims embeds the customer identity and an explicit role claim.
// Authorization decisions are made from Role, never from name or email
// comparisons.
type CustomClaims struct {
	CustomerID uint   `json:"customer_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(customerID uint, email, firstName, lastName, role string) (string, error) {
	claims := &CustomClaims{
		CustomerID: customerID,
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "restaurant-reservation",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
