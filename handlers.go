package secrets

import (
	"net/http"

	"go.uber.org/zap"
)

func (a *App) pageData(r *http.Request) PageData {
	data := PageData{Providers: a.providers}
	if identity, ok := IdentityFromContext(r.Context()); ok {
		data.Identity = &identity
	}
	return data
}

func (a *App) render(w http.ResponseWriter, name string, data PageData) {
	if err := a.Pages.Render(w, name, data); err != nil {
		a.Logger.Error("error rendering page", zap.String("page", name), zap.Error(err))
	}
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	a.render(w, PageHome, a.pageData(r))
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (a *App) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, PageLogin, a.pageData(r))
}

func (a *App) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, PageRegister, a.pageData(r))
}

// handleSecrets lists every submitted secret. Anyone may read it.
func (a *App) handleSecrets(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.Store.ListAccountsWithSecrets(r.Context())
	if err != nil {
		a.Logger.Error("error listing secrets", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data := a.pageData(r)
	for _, account := range accounts {
		data.Secrets = append(data.Secrets, account.Secret)
	}
	a.render(w, PageSecrets, data)
}

func (a *App) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, PageSubmit, a.pageData(r))
}

// handleSubmit overwrites the secret of the signed in account
func (a *App) handleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, a.LoginURL, http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if err := a.Store.SetSecret(r.Context(), identity.ID, r.PostFormValue("secret")); err != nil {
		a.Logger.Error("error saving secret", zap.String("account_id", identity.ID), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/secrets", http.StatusFound)
}
