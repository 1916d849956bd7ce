package common

// RefreshTokenCookieName is the name of the HTTP-only cookie carrying the
// refresh token issued on login.
const RefreshTokenCookieName = "refreshToken"

// StrongPasswordLength is the length of generated filler passwords.
const StrongPasswordLength = 8
