package provider

import (
	"fmt"

	"github.com/binocarlos/diggerpassport/internal/auth"
)

// normalizeProfile maps a raw provider profile document onto the
// normalized shape the resolver consumes: id, name, emails, the user's
// access/refresh tokens and the application's provider keys, plus any
// fields the provider's extract hook exposes.
func normalizeProfile(
	raw map[string]any,
	accessToken, refreshToken string,
	keys auth.ProviderKeys,
	extract ExtractFunc,
) *auth.Profile {
	profile := &auth.Profile{
		ID:     stringField(raw, "id", "sub", "id_str"),
		Name:   stringField(raw, "name", "displayName", "display_name"),
		Image:  stringField(raw, "image", "picture", "avatar_url", "profile_image_url"),
		Emails: emailsField(raw),
		Tokens: auth.Tokens{
			User: auth.UserTokens{
				Access:  accessToken,
				Refresh: refreshToken,
			},
			Provider: keys,
		},
	}

	if extract != nil {
		profile.Extra = extract(raw)
	}

	return profile
}

// stringField returns the first of the named keys present in raw,
// coerced to a string. Providers disagree on numeric vs string ids.
func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func emailsField(raw map[string]any) []string {
	if email, ok := raw["email"].(string); ok && email != "" {
		return []string{email}
	}

	list, ok := raw["emails"].([]any)
	if !ok {
		return nil
	}

	var emails []string
	for _, item := range list {
		switch v := item.(type) {
		case string:
			emails = append(emails, v)
		case map[string]any:
			// portable-contacts style {value: "..."} entries
			if value, ok := v["value"].(string); ok {
				emails = append(emails, value)
			}
		}
	}
	return emails
}
