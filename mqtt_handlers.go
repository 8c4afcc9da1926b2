package main

import (
	"sensoralert/shared"
	"sensoralert/utils"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func makeHandler(handlers shared.FeedHandlers, sink shared.ReadingSink) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {

		topic := msg.Topic()
		log.Debugf("Received MQTT message from topic: \x1b[33m%s\x1b[0m", topic)

		for filter, handler := range handlers {
			if utils.TopicMatches(filter, topic) {
				err := handler.Process(topic, sink, msg)
				if err != nil {
					log.Errorf("failed to process [%s] with handler [%s] error: [%s]", topic, filter, err)
				} else {
					log.Debugf("Dispatched [%s] =>  [%s]", topic, filter)
				}
				return
			}
		}
		log.Warnf("no handler for topic [%s]", utils.ReplaceBinaryWithHex(topic))
	}
}
