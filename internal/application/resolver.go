package application

import (
	"fmt"
	"sort"
	"strings"

	"voice-console/internal/domain"
)

// classKeywords maps natural-language class words ("lights", "lamps") onto
// device classes. Kept as an explicit table because the "all <class>" and
// "<room> <class>" patterns depend on it directly.
var classKeywords = map[string]domain.DeviceClass{
	"light":  domain.ClassLight,
	"lights": domain.ClassLight,
	"lamp":   domain.ClassLight,
	"lamps":  domain.ClassLight,

	"switch":   domain.ClassSwitch,
	"switches": domain.ClassSwitch,

	"fan":  domain.ClassFan,
	"fans": domain.ClassFan,

	"outlet":  domain.ClassOutlet,
	"outlets": domain.ClassOutlet,
	"plug":    domain.ClassOutlet,
	"plugs":   domain.ClassOutlet,
	"socket":  domain.ClassOutlet,
	"sockets": domain.ClassOutlet,

	"sensor":  domain.ClassSensor,
	"sensors": domain.ClassSensor,

	"speaker":  domain.ClassMediaPlayer,
	"speakers": domain.ClassMediaPlayer,

	"thermostat":  domain.ClassClimate,
	"thermostats": domain.ClassClimate,
}

// ClassForKeyword exposes the synonym table lookup.
func ClassForKeyword(word string) (domain.DeviceClass, bool) {
	c, ok := classKeywords[strings.ToLower(strings.TrimSpace(word))]
	return c, ok
}

// Resolution is the outcome of resolving one natural-language target
// reference. Explanation always carries one human-readable fragment for the
// running action summary, matched or not.
type Resolution struct {
	Devices     []domain.Device
	Explanation string
}

func (r Resolution) Matched() bool { return len(r.Devices) > 0 }

// Resolver maps natural-language device, room and group references onto
// concrete devices from the target catalog.
type Resolver struct {
	catalog TargetCatalog
}

func NewResolver(catalog TargetCatalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve runs the resolution order: room, group, "all <class>",
// "<room> <class>", direct device. Offline devices are filtered out, and for
// actions (controllableOnly) so are classes that cannot be commanded. The
// returned device set is independent of catalog iteration order.
func (r *Resolver) Resolve(ref string, controllableOnly bool) Resolution {
	key := strings.ToLower(strings.TrimSpace(ref))
	if key == "" {
		return Resolution{Explanation: "no target given"}
	}

	// "kitchen fans" must reach the compound step below; the room substring
	// match would otherwise swallow any reference that merely mentions a
	// room. Exact room/group names always win.
	fields := strings.Fields(key)
	_, endsWithClass := classKeywords[fields[len(fields)-1]]
	compoundCandidate := len(fields) >= 2 && endsWithClass

	if room, ok := r.findRoom(key); ok && (!compoundCandidate || strings.ToLower(room.Name) == key) {
		devices := r.collect(room.DeviceIDs, "", controllableOnly)
		if len(devices) > 0 {
			return Resolution{
				Devices:     devices,
				Explanation: fmt.Sprintf("%s: %d device(s)", room.Name, len(devices)),
			}
		}
		return Resolution{Explanation: fmt.Sprintf("no usable devices in %s", room.Name)}
	}

	if group, ok := r.findGroup(key); ok && (!compoundCandidate || strings.ToLower(group.Name) == key) {
		devices := r.collect(group.DeviceIDs, "", controllableOnly)
		if len(devices) > 0 {
			return Resolution{
				Devices:     devices,
				Explanation: fmt.Sprintf("%s: %d device(s)", group.Name, len(devices)),
			}
		}
		return Resolution{Explanation: fmt.Sprintf("no usable devices in group %s", group.Name)}
	}

	if class, ok := allClassPattern(key); ok {
		devices := r.allOfClass(class, controllableOnly)
		if len(devices) > 0 {
			return Resolution{
				Devices:     devices,
				Explanation: fmt.Sprintf("all %s devices: %d", class, len(devices)),
			}
		}
		return Resolution{Explanation: fmt.Sprintf("no online %s devices", class)}
	}

	if room, class, ok := r.roomClassPattern(key); ok {
		devices := r.collect(room.DeviceIDs, class, controllableOnly)
		if len(devices) > 0 {
			return Resolution{
				Devices:     devices,
				Explanation: fmt.Sprintf("%s %s: %d device(s)", room.Name, class, len(devices)),
			}
		}
		return Resolution{Explanation: fmt.Sprintf("no online %s devices in %s", class, room.Name)}
	}

	return r.directDevice(key, ref, controllableOnly)
}

// findRoom matches the reference against room names: equality first, then
// containment either way ("the kitchen" vs room "Kitchen").
func (r *Resolver) findRoom(key string) (domain.Room, bool) {
	rooms := r.catalog.Rooms()
	for _, room := range rooms {
		if strings.ToLower(room.Name) == key {
			return room, true
		}
	}
	for _, room := range rooms {
		name := strings.ToLower(room.Name)
		if name != "" && (strings.Contains(key, name) || strings.Contains(name, key)) {
			return room, true
		}
	}
	return domain.Room{}, false
}

func (r *Resolver) findGroup(key string) (domain.DeviceGroup, bool) {
	groups := r.catalog.Groups()
	for _, g := range groups {
		if strings.ToLower(g.Name) == key {
			return g, true
		}
	}
	for _, g := range groups {
		name := strings.ToLower(g.Name)
		if name != "" && (strings.Contains(key, name) || strings.Contains(name, key)) {
			return g, true
		}
	}
	return domain.DeviceGroup{}, false
}

// allClassPattern recognizes "all lights", "every fan" and similar.
func allClassPattern(key string) (domain.DeviceClass, bool) {
	for _, prefix := range []string{"all the ", "all ", "every "} {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			if class, ok := classKeywords[strings.TrimSpace(rest)]; ok {
				return class, true
			}
		}
	}
	return "", false
}

// roomClassPattern recognizes "<room> <class-keyword>" compounds like
// "kitchen fans": the last word must be a class keyword and the remainder a
// room reference.
func (r *Resolver) roomClassPattern(key string) (domain.Room, domain.DeviceClass, bool) {
	fields := strings.Fields(key)
	if len(fields) < 2 {
		return domain.Room{}, "", false
	}
	class, ok := classKeywords[fields[len(fields)-1]]
	if !ok {
		return domain.Room{}, "", false
	}
	roomRef := strings.Join(fields[:len(fields)-1], " ")
	room, ok := r.findRoom(roomRef)
	if !ok {
		return domain.Room{}, "", false
	}
	return room, class, true
}

// collect resolves member IDs to online devices, optionally restricted to a
// class and to controllable classes. Output is sorted by ID so the result is
// independent of membership order.
func (r *Resolver) collect(ids []string, class domain.DeviceClass, controllableOnly bool) []domain.Device {
	var out []domain.Device
	for _, id := range ids {
		d, ok := r.catalog.DeviceByID(id)
		if !ok || !d.Online {
			continue
		}
		if class != "" && d.Class != class {
			continue
		}
		if controllableOnly && !d.Class.Controllable() {
			continue
		}
		out = append(out, *d)
	}
	sortDevices(out)
	return out
}

func (r *Resolver) allOfClass(class domain.DeviceClass, controllableOnly bool) []domain.Device {
	var out []domain.Device
	for _, d := range r.catalog.Devices() {
		if !d.Online || d.Class != class {
			continue
		}
		if controllableOnly && !d.Class.Controllable() {
			continue
		}
		out = append(out, d)
	}
	sortDevices(out)
	return out
}

// directDevice matches a single device by name containment either way or by
// identifier equality. A name match on an offline device is reported as
// offline rather than not found.
func (r *Resolver) directDevice(key, raw string, controllableOnly bool) Resolution {
	var match *domain.Device
	for _, d := range r.catalog.Devices() {
		d := d
		name := strings.ToLower(d.Name)
		if d.ID != raw && d.ID != key && name != key &&
			!strings.Contains(name, key) && !strings.Contains(key, name) {
			continue
		}
		if controllableOnly && !d.Class.Controllable() {
			continue
		}
		if d.Online {
			return Resolution{
				Devices:     []domain.Device{d},
				Explanation: d.Name,
			}
		}
		if match == nil {
			match = &d
		}
	}
	if match != nil {
		return Resolution{Explanation: fmt.Sprintf("%s is offline", match.Name)}
	}
	return Resolution{Explanation: fmt.Sprintf("device %q not found or offline", raw)}
}

func sortDevices(devices []domain.Device) {
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
}
