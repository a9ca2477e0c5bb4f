package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"linkmonitor/db"
	"linkmonitor/models"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

type SignupInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	ProjectName string `json:"projectName" binding:"required"`
	UserRole    string `json:"userRole"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := input.UserRole
	if role != "Admin" {
		role = "Executive"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	var userID string
	err = db.GetDB().QueryRow(
		`INSERT INTO users (email, password_hash, user_role, project_name) VALUES ($1, $2, $3, $4) RETURNING id`,
		input.Email, string(hash), role, input.ProjectName,
	).Scan(&userID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}

	token, _ := generateToken(userID, input.Email, role, input.ProjectName)
	setAuthCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := db.GetDB().QueryRow(
		`SELECT id, email, password_hash, user_role, project_name FROM users WHERE email = $1`,
		input.Email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.UserRole, &user.ProjectName)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, _ := generateToken(user.ID, user.Email, user.UserRole, user.ProjectName)
	setAuthCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func generateToken(userID, email, role, project string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"project": project,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func setAuthCookie(c *gin.Context, token string) {
	c.SetCookie("linkmonitor_jwt", token, int((24 * time.Hour).Seconds()), "/", "", false, true)
}
