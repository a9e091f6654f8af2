package submit

type State int

const (
	Editing State = iota
	Submitting
	Succeeded
	Failed
)

func (state State) String() string {
	switch state {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type NotificationKind int

const (
	NotifySuccess NotificationKind = iota
	NotifyError
)

type Notification struct {
	Kind    NotificationKind
	Message string
}

type Notifier interface {
	Notify(notification Notification)
}

// Navigator leaves the editing session for the page the archive redirected to.
type Navigator interface {
	Navigate(target string)
}

type NotifierFunc func(Notification)

func (fn NotifierFunc) Notify(notification Notification) {
	fn(notification)
}

type NavigatorFunc func(string)

func (fn NavigatorFunc) Navigate(target string) {
	fn(target)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Notification) {}

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}
