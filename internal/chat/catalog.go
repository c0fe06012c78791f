package chat

import "time"

type Doctor struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type ScanType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Hospital struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Distance  string `json:"distance"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Rating    string `json:"rating"`
}

var doctors = []Doctor{
	{"Dr. Priya Sharma", "General Physician"},
	{"Dr. Rahul Mehta", "Cardiologist"},
	{"Dr. Anita Reddy", "Hematologist"},
	{"Dr. Suresh Kumar", "Endocrinologist"},
}

var scanTypes = []ScanType{
	{"MRI Scan", "Magnetic Resonance Imaging"},
	{"CT Scan", "Computed Tomography"},
	{"X-Ray", "Radiography"},
	{"Ultrasound", "Sonography"},
	{"Blood Test", "Complete Blood Count, Lipid Profile, etc."},
}

var timeSlots = []string{"09:00 AM", "10:30 AM", "12:00 PM", "02:30 PM", "04:00 PM", "05:30 PM"}

var hospitals = []Hospital{
	{"Apollo Hospitals", "Multi-Specialty", "1.2 km", "+91-040-2360-7777", "Jubilee Hills, Hyderabad", "⭐ 4.8"},
	{"KIMS Hospitals", "Cardiology & Ortho", "2.5 km", "+91-040-4488-5000", "Secunderabad, Hyderabad", "⭐ 4.7"},
	{"Yashoda Hospitals", "Neurology & General", "3.1 km", "+91-040-4567-4567", "Somajiguda, Hyderabad", "⭐ 4.6"},
	{"Care Hospitals", "Oncology & Nephrology", "4.0 km", "+91-040-6165-6165", "Banjara Hills, Hyderabad", "⭐ 4.5"},
}

// Hospitals returns a copy of the nearby hospital list.
func Hospitals() []Hospital {
	return append([]Hospital(nil), hospitals...)
}

const (
	bookableDays = 5
	dateLayout   = "Mon, 2 Jan"
)

// upcomingDates lists the bookable days, tomorrow first.
func upcomingDates(now time.Time) []string {
	out := make([]string, 0, bookableDays)
	for i := 1; i <= bookableDays; i++ {
		out = append(out, now.AddDate(0, 0, i).Format(dateLayout))
	}
	return out
}
