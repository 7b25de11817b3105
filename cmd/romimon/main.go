package main

import (
	"flag"
	"log"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/robotalks/romi/pkg/link"
	"github.com/robotalks/romi/pkg/link/mqtt"
	"github.com/robotalks/romi/pkg/link/msgs"
)

var (
	mqttURL    = "mqtt://localhost:1883/"
	showFrames = true
)

func init() {
	if val := os.Getenv("ROMI_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&showFrames, "frames", showFrames, "Print telemetry frames.")
}

// frames can span publishes, so each topic keeps its own scanner.
var (
	scannersLock sync.Mutex
	scanners     = make(map[string]*link.FrameScanner)
)

func printFrames(topic string, payload []byte) {
	scannersLock.Lock()
	defer scannersLock.Unlock()
	scanner := scanners[topic]
	if scanner == nil {
		scanner = &link.FrameScanner{}
		scanners[topic] = scanner
	}
	scanner.Write(payload)
	for {
		frame, ok := scanner.Next()
		if !ok {
			break
		}
		if link.IsEnd(frame) {
			log.Printf("%s: END", topic)
			continue
		}
		s, err := link.ParseSample(frame)
		if err != nil {
			log.Printf("%s: %v", topic, err)
			continue
		}
		log.Printf("%s: %+v", topic, s)
	}
}

func printEvent(topic string, payload []byte) {
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		log.Printf("%s: bad message: %v", topic, err)
		return
	}
	msg, err := typed.Decode()
	if err != nil {
		log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
		return
	}
	log.Printf("%s: [%s] %s", topic,
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		msg.(msgs.SerializableMessage).Serializable().String())
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.TopicMeta):
			log.Printf("%s: %s", topic, string(payload))
		case strings.HasSuffix(topic, "/"+mqtt.TopicFrames):
			if showFrames {
				printFrames(topic, payload)
			}
		case strings.HasSuffix(topic, "/"+mqtt.TopicEvents):
			printEvent(topic, payload)
		}
	}))
	<-(chan struct{})(nil)
}
