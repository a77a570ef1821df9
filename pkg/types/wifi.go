package types

// WifiStatus is the adapter's station/AP network state.
type WifiStatus struct {
	StaConnected bool   `json:"sta_connected"`
	StaSSID      string `json:"sta_ssid"`
	StaIP        string `json:"sta_ip"`
	StaRSSI      int    `json:"sta_rssi"`
	ApIP         string `json:"ap_ip"`
	ApClients    int    `json:"ap_clients"`
	HasTime      bool   `json:"has_time"`
}

// WifiNetwork is one entry of a scan_wifi result.
type WifiNetwork struct {
	SSID   string `json:"ssid"`
	Secure bool   `json:"secure"`
	RSSI   int    `json:"rssi"`
}
