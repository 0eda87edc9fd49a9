package garmin

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
)

const (
	webHost     = "https://connect.garmin.com"
	redirectURL = "https://connect.garmin.com/modern/"
	signinURL   = "https://connect.garmin.com/en-US/signin"
	ssoURL      = "https://sso.garmin.com/sso"
	cssURL      = "https://static.garmincdn.com/com.garmin.connect/ui/css/gauth-custom-v1.2-min.css"
	postAuthURL = "https://connect.garmin.com/modern/activities?"
)

// ticketPattern extracts the service ticket from the login response body.
var ticketPattern = regexp.MustCompile(`(?s)\?ticket=([-\w]+)";`)

// Credentials are the Garmin Connect account credentials.
type Credentials struct {
	Username string
	Password string
}

// AuthArtifacts are the intermediate HTML documents of the login flow,
// persisted by the caller at higher verbosity for troubleshooting.
type AuthArtifacts struct {
	ConnectResponse string
	LoginResponse   string
}

// signinParams are the fields of a typical Garmin SSO widget login.
func signinParams() url.Values {
	data := url.Values{}
	data.Set("service", redirectURL)
	data.Set("webhost", webHost)
	data.Set("source", signinURL)
	data.Set("redirectAfterAccountLoginUrl", redirectURL)
	data.Set("redirectAfterAccountCreationUrl", redirectURL)
	data.Set("gauthHost", ssoURL)
	data.Set("locale", "en_US")
	data.Set("id", "gauth-widget")
	data.Set("cssUrl", cssURL)
	data.Set("clientId", "GarminConnect")
	data.Set("rememberMeShown", "true")
	data.Set("rememberMeChecked", "false")
	data.Set("createAccountShown", "true")
	data.Set("openCreateAccount", "false")
	data.Set("displayNameShown", "false")
	data.Set("consumeServiceTicket", "false")
	data.Set("initialFocus", "true")
	data.Set("embedWidget", "false")
	data.Set("generateExtraServiceTicket", "true")
	data.Set("generateTwoExtraServiceTickets", "false")
	data.Set("generateNoServiceticket", "false")
	data.Set("globalOptInShown", "true")
	data.Set("globalOptInChecked", "false")
	data.Set("mobile", "false")
	data.Set("connectLegalTerms", "true")
	data.Set("locationPromptShown", "true")
	data.Set("showPassword", "true")
	return data
}

// Authenticate performs the ticket-based SSO login: pull the signin page
// to obtain a session cookie, post the credentials, extract the service
// ticket from the response and redeem it against the post-auth URL. After
// a nil return the session's cookie jar holds a logged-in session.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*AuthArtifacts, error) {
	loginURL := ssoURL + "/signin?" + signinParams().Encode()
	artifacts := &AuthArtifacts{}

	connectResponse, err := c.session.RequestString(ctx, loginURL, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to signin page: %w", err)
	}
	artifacts.ConnectResponse = connectResponse

	post := url.Values{}
	post.Set("username", creds.Username)
	post.Set("password", creds.Password)
	post.Set("embed", "false")
	post.Set("rememberme", "on")

	loginResponse, err := c.session.RequestString(ctx, loginURL+"#", post, map[string]string{"referer": loginURL})
	if err != nil {
		return nil, fmt.Errorf("request login ticket: %w", err)
	}
	artifacts.LoginResponse = loginResponse

	m := ticketPattern.FindStringSubmatch(loginResponse)
	if m == nil {
		return artifacts, fmt.Errorf("could not find ticket in the login response, cannot log in")
	}
	ticket := m[1]

	if _, err := c.session.Request(ctx, postAuthURL+"ticket="+ticket, nil, nil); err != nil {
		return artifacts, fmt.Errorf("redeem login ticket: %w", err)
	}
	return artifacts, nil
}
