package portal

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/credentials"
	"github.com/muurk/netmgr/internal/fault"
	"github.com/muurk/netmgr/internal/httpwire"
	"github.com/muurk/netmgr/internal/provision"
)

// Handle routes one request and returns the response to send. saved is true
// only when new credentials were stored.
//
//	GET / or /?...  -> 200 credential form
//	POST /save...   -> 303 on success, 400 on validation, 500 on storage failure
//	anything else   -> 404
func (p *Portal) Handle(req *httpwire.Request) (resp *httpwire.Response, saved bool) {
	switch {
	case req.Method == "GET" && (req.Path == "/" || strings.HasPrefix(req.Path, "/?")):
		current := p.store.Load()
		return httpwire.HTML(http.StatusOK, renderPage(p.title, current.NetworkName, "")), false

	case req.Method == "POST" && strings.HasPrefix(req.Path, "/save"):
		return p.handleSave(req)

	default:
		return httpwire.NewResponse(http.StatusNotFound), false
	}
}

func (p *Portal) handleSave(req *httpwire.Request) (*httpwire.Response, bool) {
	if req.BodyTooLarge {
		p.logger.Info("Rejected oversized credential submission",
			zap.String("content_length", req.Header("content-length")),
		)
		return httpwire.HTML(http.StatusBadRequest, renderPage(p.title, "", "Request is too large.")), false
	}

	form := httpwire.ParseForm(string(req.Body))
	creds := credentials.Normalize(credentials.Credentials{
		NetworkName: form["ssid"],
		Passphrase:  form["password"],
	})

	if err := credentials.Validate(creds); err != nil {
		p.logger.Info("Rejected credential submission", zap.Error(err))
		return httpwire.HTML(http.StatusBadRequest, renderPage(p.title, "", fault.ShortMessage(err))), false
	}

	if err := p.store.Save(creds); err != nil {
		p.logger.Error("Failed to save credentials", zap.Error(err))
		return httpwire.HTML(http.StatusInternalServerError, renderPage(p.title, creds.NetworkName, fault.ShortMessage(err))), false
	}

	p.logger.Info("New credentials stored, leaving provisioning mode",
		zap.String("ssid", creds.NetworkName),
	)
	if !p.intents.Withdraw(provision.ReasonSaved) {
		p.logger.Warn("Provisioning withdrawal was not accepted")
	}

	return httpwire.Redirect(http.StatusSeeOther, "/"), true
}
