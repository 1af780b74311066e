package oauth2

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const FacebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,picture"

type FacebookOAuth2 struct {
	*BaseOAuth2
}

// NewFacebookOAuth2 requests user_friends and manage_pages and forces the
// login dialog to re-prompt for credentials
func NewFacebookOAuth2(clientId string, clientSecret string, callbackUrl string, handleUser HandleUserFunc) *FacebookOAuth2 {
	out := FacebookOAuth2{
		BaseOAuth2: NewBaseOAuth2("facebook", clientId, clientSecret, callbackUrl, handleUser),
	}
	out.Config.Endpoint = facebook.Endpoint
	out.Config.Scopes = []string{"user_friends", "manage_pages"}
	out.AuthCodeOptions = []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("auth_type", "reauthenticate"),
	}
	out.UserInfoURL = FacebookUserInfoURL
	out.normalize = facebookProfile
	return &out
}

// Graph API nests the avatar as picture.data.url
func facebookProfile(raw map[string]any) map[string]any {
	out := map[string]any{
		"id":   stringField(raw, "id"),
		"name": stringField(raw, "name"),
	}
	if picture, ok := raw["picture"].(map[string]any); ok {
		if data, ok := picture["data"].(map[string]any); ok {
			out["picture"] = stringField(data, "url")
		}
	}
	return out
}
