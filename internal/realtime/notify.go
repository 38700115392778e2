package realtime

import "fmt"

// Notification returns the user-facing text for c, if it warrants one.
func Notification(c Change) (string, bool) {
	switch c.Table {
	case TableServiceRequests:
		if c.Type != EventUpdate || c.New == nil {
			return "", false
		}
		status, _ := c.New["status"].(string)
		if status == "" {
			return "", false
		}
		if prev, _ := c.Old["status"].(string); prev == status {
			return "", false
		}
		return fmt.Sprintf("Service request %s!", status), true
	case TableMechanicProfiles:
		if c.Type == EventInsert {
			return "New mechanic available in your area!", true
		}
	case TableMessages:
		if c.Type != EventInsert || c.New == nil {
			return "", false
		}
		if sender, _ := c.New["sender"].(string); sender != "mechanic" {
			return "", false
		}
		name, _ := c.New["mechanic_name"].(string)
		if name == "" {
			name = "your mechanic"
		}
		return fmt.Sprintf("New message from %s", name), true
	}
	return "", false
}
