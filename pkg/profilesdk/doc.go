// Package profilesdk is the Go client for the profiles service HTTP API, and
// holds the request and response types shared with the server.
//
// Unauthenticated operations live on Client:
//
//	c := profilesdk.NewClient("http://localhost:8080")
//	sess, err := c.SignUp(ctx, profilesdk.SignUpRequest{
//		Email:    "ann@example.com",
//		Password: "correct horse",
//		Username: "ann",
//	})
//
// Operations on the caller's own profile take the session token returned by
// SignUp or SignIn:
//
//	p, err := c.UpdateMyProfile(ctx, sess.SessionToken, profilesdk.UpdateProfileRequest{Bio: &bio})
//
// Non-2xx responses are returned as *APIError carrying the stable error code.
package profilesdk
