package domain

// Area is a semantic tag for a place inside (or around) the hospital.
type Area string

const (
	AreaOutside      Area = "outside"
	AreaParking      Area = "parking"
	AreaEntrance     Area = "entrance"
	AreaRegistration Area = "registration"
	AreaWaitingRoom  Area = "waiting_room"
	AreaExamRoom     Area = "exam_room"
	AreaLab          Area = "lab"
	AreaPharmacy     Area = "pharmacy"
	AreaCafeteria    Area = "cafeteria"
	AreaRestroom     Area = "restroom"
	AreaExit         Area = "exit"
	AreaUnknown      Area = "unknown"
)

// Location is a physical position reported by the patient's device.
type Location struct {
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Floor     string  `json:"floor,omitempty"`
	Building  string  `json:"building,omitempty"`
	Room      string  `json:"room,omitempty"`
	BeaconID  string  `json:"beacon_id,omitempty"`
}
