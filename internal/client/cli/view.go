package cli

import "github.com/dmitrijs2005/hbd/internal/client/models"

// view is the selection state of the REPL. At most one of editing,
// pendingDelete and pendingAccount is set at a time.
type view struct {
	editing        *models.Birthday
	pendingDelete  string
	pendingAccount bool
}

func (v *view) reset() {
	*v = view{}
}

func (v *view) startEdit(b models.Birthday) {
	v.reset()
	v.editing = &b
}

func (v *view) markDelete(id string) {
	v.reset()
	v.pendingDelete = id
}

func (v *view) markAccountDelete() {
	v.reset()
	v.pendingAccount = true
}

func (v *view) idle() bool {
	return v.editing == nil && v.pendingDelete == "" && !v.pendingAccount
}
