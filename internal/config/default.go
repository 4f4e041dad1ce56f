package config

// defaultTOML is the stock configuration. User files are layered on top.
const defaultTOML = `
cooldown = "5s"
seed = 0

[trigger]
chip = "gpiochip0"
pin = 6
active_low = false
pull = "down"

[outputs]
chip = "gpiochip0"
status_led = 13
indicator = -1
amp_enable = 5

[strip]
device = "/dev/ttyACM0"
baud = 115200
num_pixels = 8
brightness = 0.8
order = "GRB"

[flicker]
color = [226, 121, 35]
scaler = 0.3
max_offset = 55
delay_min = "10ms"
delay_max = "100ms"

[playback]
dir = "audio"
extension = ".wav"
event_color = [255, 0, 0]
poll = "5ms"
failure_color = [255, 0, 255]
failure_flashes = 3
failure_flash = "100ms"
sample_rate = 44100
buffer = "100ms"

[mqtt]
broker = ""
client_id = "ember-trigger"
heartbeat = "15m"
buffer = 100

[http]
addr = ":8080"
`
