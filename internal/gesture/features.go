package gesture

// Feature is a cosmetic security feature a gesture can be named after. The
// features themselves do nothing beyond a notification.
type Feature struct {
	ID          string
	Name        string
	Description string
}

// GestureName is the name a gesture assigned to f is saved under.
func (f Feature) GestureName() string { return f.Name + " Gesture" }

var features = []Feature{
	{ID: "ghost-delete", Name: "Ghost Delete", Description: "Instantly clear conversations in messaging apps"},
	{ID: "emergency-signal", Name: "Emergency Distress Signal", Description: "Send pre-set emergency message with live GPS coordinates"},
	{ID: "fake-shutdown", Name: "Fake Shutdown", Description: "Black out screen while keeping phone running in background"},
	{ID: "voice-recording", Name: "Silent Recording", Description: "Trigger silent audio recording without opening any app"},
	{ID: "self-destruct", Name: "Self-Destruct Mode", Description: "Force-reboot and wipe sensitive data"},
}

// Features lists the catalog in display order.
func Features() []Feature {
	return append([]Feature(nil), features...)
}

// FeatureByID looks a feature up by id.
func FeatureByID(id string) (Feature, bool) {
	for _, f := range features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}
