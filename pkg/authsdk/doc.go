/*
Package authsdk is the client and wire contract of the Examania session service.

# Overview

The service keeps no server-side sessions. A login hands out two HttpOnly
cookies, a short lived access token and a long lived refresh token, and every
later request is judged on those alone. The types in this package are the
JSON bodies exchanged with the service; the server uses the same types, so a
field renamed here is renamed on the wire.

# SDKClient

SDKClient behaves like a browser: it keeps the cookies in a jar and does not
follow redirects, so gated pages come back as 307 responses the caller can
inspect.

	client := authsdk.NewSDKClient("http://localhost:8080")

	// Log in; both cookies land in the jar
	resp, err := client.Login(ctx, "maria@examania.com", "secreto1")

	// Who am I?
	user, err := client.Session(ctx)

	// Gated pages
	page, err := client.Page(ctx, "/dashboard")
	defer page.Body.Close()

	// Trade the refresh cookie for a new access cookie
	resp, err = client.Refresh(ctx)

	// Clear both cookies
	err = client.Logout(ctx)

# Errors

Every non-2xx response is returned as *APIError or, for rejected request
bodies, *ValidationError. APIError implements Is, so callers can compare
against the predefined values:

	_, err := client.Refresh(ctx)
	if errors.Is(err, authsdk.ErrSessionExpired) {
		// log in again
	}

# Bootstrap

A fresh deployment has no users. With BOOTSTRAP_TOKEN set on the server, the
first administrator is created with:

	resp, err := client.Bootstrap(ctx, token, authsdk.BootstrapRequest{
		AdminEmail:    "admin@examania.com",
		AdminName:     "Administrador",
		AdminPassword: "change-me-now",
	})

Once any user exists the endpoint answers 409.
*/
package authsdk
