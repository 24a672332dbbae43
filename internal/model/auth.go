package model

// LoginParams identifies an account by username or email and carries the password.
type LoginParams struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Account PublicAccount
	Tokens  TokenPair
}

// RegisterParams describes a new account. CoverImage is optional.
type RegisterParams struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *Upload
	CoverImage *Upload
}
