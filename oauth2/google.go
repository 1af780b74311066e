package oauth2

import (
	"golang.org/x/oauth2/google"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

type GoogleOAuth2 struct {
	*BaseOAuth2
}

// NewGoogleOAuth2 asks only for the basic profile. The v3 userinfo endpoint
// returns the stable account id as "sub".
func NewGoogleOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *GoogleOAuth2 {
	out := GoogleOAuth2{
		BaseOAuth2: NewBaseOAuth2("google", clientId, clientSecret, callbackUrl, handleUser),
	}
	out.Config.Endpoint = google.Endpoint
	out.Config.Scopes = []string{"profile"}
	out.UserInfoURL = GoogleUserInfoURL
	out.normalize = googleProfile
	return &out
}

func googleProfile(raw map[string]any) map[string]any {
	id := stringField(raw, "sub")
	if id == "" {
		// v2 style responses
		id = stringField(raw, "id")
	}
	return map[string]any{
		"id":      id,
		"name":    stringField(raw, "name"),
		"picture": stringField(raw, "picture"),
	}
}
